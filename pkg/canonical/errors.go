package canonical

import (
	"errors"
	"fmt"
)

// ErrSerialization matches any *SerializationError
var ErrSerialization = errors.New("payload cannot be canonically serialized")

var errInvalidUTF8 = errors.New("string is not valid UTF-8")

// SerializationError reports a payload that has no canonical JSON encoding.
// Path locates the offending element, e.g. "$.message.items[2]".
type SerializationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("cannot serialize %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

func serializationError(path, reason string) error {
	return &SerializationError{Path: path, Reason: reason}
}

func errUnsupportedNumber(f float64) error {
	return fmt.Errorf("unsupported number %v", f)
}
