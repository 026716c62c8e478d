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

package signer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sage-x-project/sage-beckn-go/pkg/canonical"
	"github.com/sage-x-project/sage-beckn-go/pkg/digest"
	"github.com/sage-x-project/sage/pkg/agent/crypto"
)

// DefaultBecknSigner implements BecknSigner
type DefaultBecknSigner struct {
	format HeaderFormat
}

// NewDefaultBecknSigner creates a new signer emitting HeaderFormatV1
func NewDefaultBecknSigner() *DefaultBecknSigner {
	return &DefaultBecknSigner{format: HeaderFormatV1}
}

// NewDefaultBecknSignerWithOptions creates a signer from opts. A nil opts
// behaves like NewDefaultBecknSigner.
func NewDefaultBecknSignerWithOptions(opts *SigningOptions) *DefaultBecknSigner {
	s := NewDefaultBecknSigner()
	if opts != nil {
		s.format = opts.Format
	}
	return s
}

// Format returns the header format this signer emits
func (s *DefaultBecknSigner) Format() HeaderFormat {
	return s.format
}

// CreateHeaders canonicalizes payload, digests the canonical bytes and signs
// the digest.
func (s *DefaultBecknSigner) CreateHeaders(ctx context.Context, payload any, subscriberID string, keyPair crypto.KeyPair) (*Headers, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if keyPair == nil {
		return nil, signingError("key pair cannot be nil", nil)
	}

	if err := ValidateSubscriberID(subscriberID); err != nil {
		return nil, err
	}

	d, err := digest.Compute(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to compute digest: %w", err)
	}

	sig, err := Sign(d.Digest, keyPair)
	if err != nil {
		return nil, err
	}

	auth, err := s.format.Format(subscriberID, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to format authorization header: %w", err)
	}

	return &Headers{
		Digest:        d.Digest,
		Authorization: auth,
		Body:          d.Body,
	}, nil
}

// SignRequest reads the JSON body of req, replaces it with its canonical
// form and sets the Digest and Authorization headers. On error the request
// headers are left untouched.
func (s *DefaultBecknSigner) SignRequest(ctx context.Context, req *http.Request, subscriberID string, keyPair crypto.KeyPair) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}

	body, err := readBody(req)
	if err != nil {
		return err
	}

	payload, err := canonical.Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse request body: %w", err)
	}

	headers, err := s.CreateHeaders(ctx, payload, subscriberID, keyPair)
	if err != nil {
		return err
	}

	setBody(req, headers.Body)
	headers.Apply(req.Header)

	return nil
}

// readBody drains req.Body and restores it so a failed signing attempt
// leaves the request as it was.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, fmt.Errorf("request body cannot be empty")
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	setBody(req, body)
	return body, nil
}

func setBody(req *http.Request, body []byte) {
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}
