package resolver

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownClass        = errors.New("class is not registered")
	ErrInvalidConstructor  = errors.New("invalid constructor")
	ErrUntypedParameter    = errors.New("parameter has no declared type")
	ErrUnregisteredBinding = errors.New("no binding registered")
	ErrCircular            = errors.New("circular dependency")
	ErrArgumentType        = errors.New("argument type mismatch")
)

// CannotResolveClassError reports a constructor parameter that could not be
// satisfied. It is never cached; the next attempt resolves again.
type CannotResolveClassError struct {
	Class     string
	Parameter string
	Type      string
	Cause     error
}

func (e *CannotResolveClassError) Error() string {
	typ := e.Type
	if typ == "" {
		typ = "untyped"
	}
	return fmt.Sprintf("resolver: cannot resolve parameter %q (%s) of class %s: %v", e.Parameter, typ, e.Class, e.Cause)
}

func (e *CannotResolveClassError) Unwrap() error { return e.Cause }

// InvalidClassError wraps a failure to inspect or build a class.
type InvalidClassError struct {
	Class string
	Cause error
}

func (e *InvalidClassError) Error() string {
	return fmt.Sprintf("resolver: invalid class %s: %v", e.Class, e.Cause)
}

func (e *InvalidClassError) Unwrap() error { return e.Cause }
