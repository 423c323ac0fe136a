package routing

import (
	"errors"
	"fmt"
)

var (
	ErrRouteNotFound   = errors.New("route not found")
	ErrInvalidTemplate = errors.New("invalid route template")
	ErrInvalidHandler  = errors.New("invalid route handler")
	ErrBadArgument     = errors.New("bad route argument")
)

// RouteNotFoundError reports that no route answers method and path.
type RouteNotFoundError struct {
	Method string
	Path   string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("routing: no route for %s %s", e.Method, e.Path)
}

func (e *RouteNotFoundError) Unwrap() error { return ErrRouteNotFound }

// TemplateError reports a template that cannot be compiled.
type TemplateError struct {
	Template string
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("routing: template %q: %s", e.Template, e.Reason)
}

func (e *TemplateError) Unwrap() error { return ErrInvalidTemplate }

// HandlerError wraps a failure to resolve or call a route handler.
type HandlerError struct {
	Route string
	Cause error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("routing: handler for %s: %v", e.Route, e.Cause)
}

func (e *HandlerError) Unwrap() error { return e.Cause }
