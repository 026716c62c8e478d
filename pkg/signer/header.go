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
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sage-x-project/sage-beckn-go/pkg/digest"
	"github.com/sage-x-project/sage/pkg/agent/crypto"
)

const (
	// HeaderDigest is the request header carrying the body digest
	HeaderDigest = "Digest"

	// HeaderAuthorization is the request header carrying the signature
	HeaderAuthorization = "Authorization"

	// Algorithm is the only signature algorithm emitted
	Algorithm = "ed25519"

	// SignedHeaders lists the covered headers in the Authorization value
	SignedHeaders = "digest"

	signingStringPrefix = "digest: "
)

// HeaderFormat selects the layout of the Authorization header value
type HeaderFormat int

const (
	// HeaderFormatV1 is
	//   Signature keyId="<id>",algorithm="ed25519",headers="digest",signature="<sig>"
	HeaderFormatV1 HeaderFormat = iota
)

// String returns the configuration name of the format
func (f HeaderFormat) String() string {
	switch f {
	case HeaderFormatV1:
		return "v1"
	default:
		return fmt.Sprintf("HeaderFormat(%d)", int(f))
	}
}

// ParseHeaderFormat maps a configuration name to a HeaderFormat.
// The empty string selects HeaderFormatV1.
func ParseHeaderFormat(s string) (HeaderFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "v1":
		return HeaderFormatV1, nil
	default:
		return 0, fmt.Errorf("unknown header format %q", s)
	}
}

// SigningString returns the exact text that is signed for a digest
func SigningString(d string) string {
	return signingStringPrefix + d
}

// Sign signs the signing string for d with an Ed25519 key pair and returns
// the standard base64 signature.
func Sign(d string, keyPair crypto.KeyPair) (string, error) {
	if keyPair == nil {
		return "", signingError("key pair cannot be nil", nil)
	}
	if keyPair.Type() != crypto.KeyTypeEd25519 {
		return "", signingError(fmt.Sprintf("unsupported key type %v", keyPair.Type()), nil)
	}
	if err := digest.Validate(d); err != nil {
		return "", signingError("invalid digest", err)
	}

	sig, err := keyPair.Sign([]byte(SigningString(d)))
	if err != nil {
		return "", signingError("key pair refused to sign", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return "", signingError(fmt.Sprintf("signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig)), nil)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// FormatHeader builds the V1 Authorization header value
func FormatHeader(subscriberID, signature string) (string, error) {
	return HeaderFormatV1.Format(subscriberID, signature)
}

// Format builds the Authorization header value in format f
func (f HeaderFormat) Format(subscriberID, signature string) (string, error) {
	if err := ValidateSubscriberID(subscriberID); err != nil {
		return "", err
	}
	if signature == "" {
		return "", fmt.Errorf("signature cannot be empty")
	}

	switch f {
	case HeaderFormatV1:
		return fmt.Sprintf(`Signature keyId="%s",algorithm="%s",headers="%s",signature="%s"`,
			subscriberID, Algorithm, SignedHeaders, signature), nil
	default:
		return "", fmt.Errorf("unsupported header format %v", f)
	}
}

// ValidateSubscriberID rejects ids that would break out of the quoted keyId
// parameter.
func ValidateSubscriberID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSubscriberID)
	}
	for _, r := range id {
		switch {
		case r == '"' || r == '\\':
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSubscriberID, id, r)
		case r < 0x20 || r == 0x7f:
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidSubscriberID, id)
		}
	}
	return nil
}
