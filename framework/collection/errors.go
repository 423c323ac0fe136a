package collection

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeyType     = errors.New("invalid key type")
	ErrInvalidElementType = errors.New("invalid element type")
)

// InvalidKeyTypeError is returned when a key is rejected by the collection kind.
type InvalidKeyTypeError struct {
	Kind   Kind
	Key    any
	Reason string
}

func (e *InvalidKeyTypeError) Error() string {
	msg := fmt.Sprintf("collection: %s does not accept key %#v (%T)", e.Kind, e.Key, e.Key)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidKeyTypeError) Unwrap() error { return ErrInvalidKeyType }

// InvalidElementTypeError is returned when a value fails the declared element type.
type InvalidElementTypeError struct {
	Expected string
	Value    any
}

func (e *InvalidElementTypeError) Error() string {
	return fmt.Sprintf("collection: value of type %T is not a valid %s", e.Value, e.Expected)
}

func (e *InvalidElementTypeError) Unwrap() error { return ErrInvalidElementType }
