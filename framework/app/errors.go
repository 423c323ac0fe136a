package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/routing"
)

// ErrorHandler turns a failed request into a response. RouteNotFound and
// unconvertible route arguments are a 404, an *gohttp.HTTPError keeps its
// status and anything else is a 500.
// Every error is logged.
type ErrorHandler struct {
	Log   *slog.Logger
	Debug bool

	// View renders errors/<status> for HTML clients when the template exists.
	View *gohttp.View
}

// Render logs err and builds the response for req.
func (h *ErrorHandler) Render(req *gohttp.Request, err error) *gohttp.Response {
	status, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	var httpErr *gohttp.HTTPError
	switch {
	case errors.Is(err, routing.ErrRouteNotFound), errors.Is(err, routing.ErrBadArgument):
		status, message = http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case errors.As(err, &httpErr):
		status, message = httpErr.Status, httpErr.Message
	}

	attrs := []any{
		slog.String("method", req.Method()),
		slog.String("path", req.Path()),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", attrs...)
		if h.Debug {
			message = err.Error()
		}
	} else {
		h.Log.Warn("request rejected", attrs...)
	}

	if wantsJSON(req) {
		return gohttp.Error(status, message)
	}
	if h.View != nil {
		name := fmt.Sprintf("errors/%d", status)
		if h.View.Exists(name) {
			res, rerr := h.View.Render(name, map[string]any{"Status": status, "Message": message})
			if rerr == nil {
				res.Status = status
				return res
			}
			h.Log.Error("error page failed to render", slog.String("view", name), slog.Any("error", rerr))
		}
	}
	return gohttp.Text(status, message)
}

func wantsJSON(req *gohttp.Request) bool {
	return req.IsJSON() || strings.Contains(req.Header("Accept"), "application/json")
}
