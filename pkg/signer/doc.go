// Package signer composes the Beckn Authorization header.
//
// A Beckn request is signed in three steps. The body is serialized
// canonically, its SHA-256 digest becomes the Digest header, and the
// signing string
//
//	digest: SHA-256=<base64 hash>
//
// is signed with the subscriber's Ed25519 key. The result is carried as
//
//	Authorization: Signature keyId="<subscriber id>",algorithm="ed25519",headers="digest",signature="<base64 signature>"
//
// # Signing a payload
//
// Use CreateHeaders when the caller builds the HTTP request itself:
//
//	s := signer.NewDefaultBecknSigner()
//	h, err := s.CreateHeaders(ctx, searchRequest, "bap.example.org", keyPair)
//	if err != nil {
//	    return err
//	}
//	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, gatewayURL+"/search", bytes.NewReader(h.Body))
//	h.Apply(req.Header)
//
// h.Body must be sent verbatim. Re-encoding the payload after signing
// produces bytes that no longer match the Digest header.
//
// # Signing an existing request
//
// SignRequest accepts a request with a JSON body, rewrites the body to its
// canonical form and sets both headers:
//
//	err := s.SignRequest(ctx, req, subscriberID, keyPair)
//
// # Errors
//
//   - Context canceled: checked before any work is done
//   - ErrInvalidSubscriberID: empty id, or an id containing a quote, a
//     backslash or a control character
//   - canonical.ErrSerialization: payload has no canonical JSON form
//   - ErrSigning: nil or non-Ed25519 key pair, or a failed signature
//
// On any error no header is set and the request must not be sent.
package signer
