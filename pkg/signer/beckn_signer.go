package signer

import (
	"context"
	"net/http"

	"github.com/sage-x-project/sage/pkg/agent/crypto"
)

// BecknSigner produces Digest and Authorization headers for Beckn requests
type BecknSigner interface {
	// CreateHeaders canonicalizes the payload and returns the body to send
	// together with its Digest and Authorization header values
	CreateHeaders(ctx context.Context, payload any, subscriberID string, keyPair crypto.KeyPair) (*Headers, error)

	// SignRequest canonicalizes a JSON request body in place and sets the
	// Digest and Authorization headers on the request
	SignRequest(ctx context.Context, req *http.Request, subscriberID string, keyPair crypto.KeyPair) error
}

// Headers holds the values a caller attaches to an outbound Beckn request.
// Body is the exact byte sequence Digest was computed over.
type Headers struct {
	Digest        string
	Authorization string
	Body          []byte
}

// Apply sets the Digest and Authorization headers on h
func (s *Headers) Apply(h http.Header) {
	h.Set(HeaderDigest, s.Digest)
	h.Set(HeaderAuthorization, s.Authorization)
}

// SigningOptions contains options for signing Beckn requests
type SigningOptions struct {
	// Format selects the Authorization header layout.
	// The zero value is HeaderFormatV1.
	Format HeaderFormat
}
