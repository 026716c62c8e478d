package signer

import (
	"errors"
	"fmt"
)

var (
	// ErrSigning matches every *SigningError
	ErrSigning = errors.New("signing failed")

	// ErrInvalidSubscriberID is returned for subscriber ids that cannot be
	// placed inside a quoted header parameter
	ErrInvalidSubscriberID = errors.New("invalid subscriber id")
)

// SigningError reports a failure to produce a signature. The request it
// belonged to must not be sent.
type SigningError struct {
	Reason string
	Err    error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing failed: %s: %v", e.Reason, e.Err)
	}
	return "signing failed: " + e.Reason
}

func (e *SigningError) Unwrap() error { return e.Err }

func (e *SigningError) Is(target error) bool { return target == ErrSigning }

func signingError(reason string, err error) *SigningError {
	return &SigningError{Reason: reason, Err: err}
}
