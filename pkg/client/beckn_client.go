// Copyright (C) 2025 SAGE-X Project
//
// This file is part of sage-beckn-go.
//
// sage-beckn-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sage-beckn-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sage-beckn-go.  If not, see <https://www.gnu.org/licenses/>.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/sage-x-project/sage-beckn-go/pkg/signer"
	"github.com/sage-x-project/sage/pkg/agent/crypto"
)

// BecknClient is an HTTP client that signs every request as a Beckn subscriber
type BecknClient struct {
	subscriberID string
	keyPair      crypto.KeyPair
	signer       signer.BecknSigner
	httpClient   *http.Client
}

// Option configures a BecknClient
type Option func(*BecknClient)

// WithSigner replaces the default signer
func WithSigner(s signer.BecknSigner) Option {
	return func(c *BecknClient) {
		if s != nil {
			c.signer = s
		}
	}
}

// NewBecknClient creates a new client signing as subscriberID.
// If httpClient is nil, http.DefaultClient is used
func NewBecknClient(subscriberID string, keyPair crypto.KeyPair, httpClient *http.Client, opts ...Option) *BecknClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &BecknClient{
		subscriberID: subscriberID,
		keyPair:      keyPair,
		signer:       signer.NewDefaultBecknSigner(),
		httpClient:   httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do signs req and executes it. The JSON body of req is replaced by its
// canonical form. Nothing is sent when signing fails.
func (c *BecknClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := c.signer.SignRequest(ctx, req, c.subscriberID, c.keyPair); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	return resp, nil
}

// Post canonicalizes payload, signs it and POSTs the canonical bytes to url
func (c *BecknClient) Post(ctx context.Context, url string, payload any) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	headers, err := c.signer.CreateHeaders(ctx, payload, c.subscriberID, c.keyPair)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(headers.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	headers.Apply(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	return resp, nil
}

// GetSubscriberID returns the subscriber id used as keyId
func (c *BecknClient) GetSubscriberID() string {
	return c.subscriberID
}

// GetKeyPair returns the key pair
func (c *BecknClient) GetKeyPair() crypto.KeyPair {
	return c.keyPair
}
