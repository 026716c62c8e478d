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

// Package digest computes the Beckn Digest header value,
// "SHA-256=" followed by the base64 SHA-256 of the canonical request body.
package digest

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sage-x-project/sage-beckn-go/pkg/canonical"
)

const (
	// Algorithm is the digest algorithm label
	Algorithm = "SHA-256"

	// Prefix precedes the base64 hash in the header value
	Prefix = Algorithm + "="
)

// Result carries a digest together with the exact bytes it covers.
// Body is what must be sent on the wire.
type Result struct {
	Digest string
	Body   []byte
}

// Compute canonicalizes payload and digests the resulting bytes.
// payload may be a canonical.Value or any value canonical.FromGo accepts.
// Payloads with no canonical form return an error matching
// canonical.ErrSerialization.
func Compute(payload any) (*Result, error) {
	v, err := canonical.FromGo(payload)
	if err != nil {
		return nil, err
	}

	body, err := canonical.Marshal(v)
	if err != nil {
		return nil, err
	}

	return &Result{Digest: OfBytes(body), Body: body}, nil
}

// Of returns only the digest string for payload.
func Of(payload any) (string, error) {
	r, err := Compute(payload)
	if err != nil {
		return "", err
	}
	return r.Digest, nil
}

// OfBytes digests body as-is. Use it only for bodies that are already in
// their final wire form.
func OfBytes(body []byte) string {
	sum := sha256.Sum256(body)
	return Prefix + base64.StdEncoding.EncodeToString(sum[:])
}

// Validate checks that d is a well-formed digest header value: the SHA-256
// prefix followed by the standard base64 of exactly 32 bytes.
func Validate(d string) error {
	encoded, ok := strings.CutPrefix(d, Prefix)
	if !ok {
		return fmt.Errorf("digest must start with %q", Prefix)
	}

	raw, err := base64.StdEncoding.Strict().DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("digest is not valid base64: %w", err)
	}
	if len(raw) != sha256.Size {
		return fmt.Errorf("digest must encode %d bytes, got %d", sha256.Size, len(raw))
	}
	return nil
}
