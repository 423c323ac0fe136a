package http

import (
	"fmt"
	"net/http"
)

// HTTPError is an error that carries the status the client should see.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http: %d %s", e.Status, e.Message)
}

// Abort returns an HTTPError; the message defaults to the status text.
//
//	if post == nil {
//	    return nil, gohttp.Abort(http.StatusNotFound, "Post not found.")
//	}
func Abort(status int, message ...string) error {
	return &HTTPError{Status: status, Message: first(message, http.StatusText(status))}
}

// Response renders the error as a JSON error response.
func (e *HTTPError) Response() *Response {
	return Error(e.Status, e.Message)
}
