package keys

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound matches any *KeyNotFoundError
	ErrKeyNotFound = errors.New("private key not found")

	// ErrKeyFormat matches any *KeyFormatError
	ErrKeyFormat = errors.New("invalid key format")

	// ErrKeyExists is returned by Persist when a private key is already present
	// and overwrite was not requested
	ErrKeyExists = errors.New("private key already exists")
)

// KeyNotFoundError reports a missing private key file.
// Callers loading keys at startup should treat it as fatal.
type KeyNotFoundError struct {
	Path string
	Err  error
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("private key not found at %s", e.Path)
}

func (e *KeyNotFoundError) Unwrap() error { return e.Err }

func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// KeyFormatError reports PEM or DER content that is not a well-formed Ed25519 key.
type KeyFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *KeyFormatError) Error() string {
	msg := "invalid key format: " + e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("invalid key format in %s: %s", e.Path, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *KeyFormatError) Unwrap() error { return e.Err }

func (e *KeyFormatError) Is(target error) bool { return target == ErrKeyFormat }

func formatError(reason string) error {
	return &KeyFormatError{Reason: reason}
}
