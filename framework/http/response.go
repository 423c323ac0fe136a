package http

import (
	"net/http"
)

// Response is the value a route handler returns. The front controller writes
// it with Send once the handler chain has finished.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type envelope map[string]any

// NewResponse returns a response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{Status: status, Header: http.Header{}, Body: body}
}

// JSON encodes data as the response body. Data that cannot be encoded
// yields a 500.
//
//	return gohttp.JSON(http.StatusOK, map[string]any{"message": "ok"}), nil
func JSON(status int, data any) *Response {
	body, err := json.Marshal(data)
	if err != nil {
		return ServerError(err.Error())
	}
	res := NewResponse(status, append(body, '\n'))
	res.Header.Set("Content-Type", "application/json")
	return res
}

// Success is 200 {"data": v}.
func Success(v any) *Response { return JSON(http.StatusOK, envelope{"data": v}) }

// Created is 201 {"data": v}.
func Created(v any) *Response { return JSON(http.StatusCreated, envelope{"data": v}) }

func NoContent() *Response { return NewResponse(http.StatusNoContent, nil) }

// Error is a JSON error: {"message": message}.
//
//	return gohttp.Error(http.StatusConflict, "Slug already taken."), nil
func Error(status int, message string) *Response {
	return JSON(status, envelope{"message": message})
}

func Unauthorized(message ...string) *Response {
	return Error(http.StatusUnauthorized, first(message, "Unauthenticated."))
}

func Forbidden(message ...string) *Response {
	return Error(http.StatusForbidden, first(message, "This action is unauthorized."))
}

func NotFound(message ...string) *Response {
	return Error(http.StatusNotFound, first(message, "Not found."))
}

func ServerError(message ...string) *Response {
	return Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// Unprocessable is 422 with a field → messages error bag.
func Unprocessable(errs map[string][]string) *Response {
	return JSON(http.StatusUnprocessableEntity, envelope{"message": "The given data was invalid.", "errors": errs})
}

// HTML is a text/html response.
func HTML(status int, body string) *Response {
	res := NewResponse(status, []byte(body))
	res.Header.Set("Content-Type", "text/html; charset=utf-8")
	return res
}

// Text is a text/plain response.
func Text(status int, body string) *Response {
	res := NewResponse(status, []byte(body))
	res.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return res
}

// Redirect points the client at url.
//
//	return gohttp.Redirect(http.StatusFound, "/dashboard"), nil
func Redirect(status int, url string) *Response {
	res := NewResponse(status, nil)
	res.Header.Set("Location", url)
	return res
}

// RedirectBack redirects to the Referer header, or fallback.
func RedirectBack(req *Request, fallback string) *Response {
	ref := req.Header("Referer")
	if ref == "" {
		ref = fallback
	}
	return Redirect(http.StatusFound, ref)
}

// WithHeader sets a header and returns res for chaining.
func (res *Response) WithHeader(key, value string) *Response {
	if res.Header == nil {
		res.Header = http.Header{}
	}
	res.Header.Set(key, value)
	return res
}

// Send writes the response to w.
func (res *Response) Send(w http.ResponseWriter) error {
	for k, vs := range res.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(res.Body) == 0 {
		return nil
	}
	_, err := w.Write(res.Body)
	return err
}
