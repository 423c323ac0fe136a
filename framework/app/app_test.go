package app_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/gomvc/framework/app"
	"github.com/km-arc/gomvc/framework/config"
	"github.com/km-arc/gomvc/framework/console"
	"github.com/km-arc/gomvc/framework/container"
	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/routing"
)

type Greeter struct{ Greeting string }

type GreetController struct {
	greeter *Greeter
	req     *gohttp.Request
}

func NewGreetController(g *Greeter, req *gohttp.Request) *GreetController {
	return &GreetController{greeter: g, req: req}
}

func (c *GreetController) Show(name string) string {
	return fmt.Sprintf("%s, %s (%s)", c.greeter.Greeting, name, c.req.Query("via", "direct"))
}

func (c *GreetController) Secret() error { return gohttp.Abort(http.StatusForbidden, "no") }

type echoCommand struct{ out *console.Output }

func (e *echoCommand) Run(_ context.Context, args []string) (int, error) {
	_, err := fmt.Fprintln(e.out, strings.Join(args, ","))
	return len(args), err
}

type brokenCommand struct{}

func (brokenCommand) Run(context.Context, []string) (int, error) { return 0, errors.New("broken") }

type fixture struct {
	app  *app.Application
	logs *bytes.Buffer
	out  *bytes.Buffer
}

func newApp(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	views := filepath.Join(root, "views")
	public := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(views, "errors"), 0o755))
	require.NoError(t, os.MkdirAll(public, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(views, "errors", "404.html"), []byte(`<h1>{{ .Status }} {{ .Message }}</h1>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "app.css"), []byte("body{}"), 0o644))

	cfg := &config.Config{
		App:    config.AppConfig{Name: "Test", Env: "testing", Debug: true, PublicDir: public},
		DB:     config.DBConfig{Driver: "sqlite", Database: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1},
		Log:    config.LogConfig{Level: "debug"},
		Cache:  config.CacheConfig{Store: "memory"},
		View:   config.ViewConfig{Dir: views, Ext: ".html"},
		Routes: config.RoutesConfig{File: filepath.Join(root, "routes.yaml")},
	}

	var logs, out bytes.Buffer
	a := app.New(app.WithConfig(cfg), app.WithLogOutput(&logs), app.WithCommandOutput(&out))
	a.Instance(container.KeyOf[*Greeter](), &Greeter{Greeting: "Hello"})

	a.Classes().MustRegister("GreetController", NewGreetController)
	a.Classes().MustRegister("Echo", func(out *console.Output) *echoCommand { return &echoCommand{out: out} })
	a.Classes().MustRegister("Broken", func() brokenCommand { return brokenCommand{} })

	a.Routes(func(r *routing.Router) {
		r.Get("/hello/{name}", "GreetController@Show").Name("hello")
		r.Get("/secret", "GreetController@Secret")
		r.Get("/boom", func() (string, error) { return "", errors.New("kaboom") })
		r.Get("/panic", func() string { panic("oh no") })
		r.Get("/miswired/{a}", func(a, b string) string { return a + b })
	})
	a.Command("echo", "Echo", "Echo the arguments")
	a.Command("broken", "Broken", "Always fails")

	require.NoError(t, a.Boot())
	t.Cleanup(func() { _ = a.Close() })
	return fixture{app: a, logs: &logs, out: &out}
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_ClassHandler(t *testing.T) {
	f := newApp(t)
	rec := get(t, f.app.Handler(), "/hello/ada?via=test")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, ada (test)", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))

	url, err := f.app.RouteCollection().URL("hello", map[string]string{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "/hello/bob", url)
}

func TestHTTP_Errors(t *testing.T) {
	f := newApp(t)
	h := f.app.Handler()

	tests := []struct {
		name   string
		path   string
		header []string
		status int
		body   string
	}{
		{"not found renders error view", "/nope", nil, http.StatusNotFound, "<h1>404 Not Found</h1>"},
		{"not found as json", "/nope", []string{"Accept", "application/json"}, http.StatusNotFound, `"Not Found"`},
		{"http error keeps status", "/secret", nil, http.StatusForbidden, "no"},
		{"handler error in debug", "/boom", nil, http.StatusInternalServerError, "kaboom"},
		{"nested path not matched", "/hello/x/y", nil, http.StatusNotFound, "404"},
		{"miswired handler is a server error", "/miswired/x", nil, http.StatusInternalServerError, "captured arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path, tt.header...)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
	assert.Contains(t, f.logs.String(), "request failed")
	assert.Contains(t, f.logs.String(), "request rejected")
}

func TestHTTP_Recoverer(t *testing.T) {
	f := newApp(t)
	rec := get(t, f.app.Handler(), "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHTTP_Static(t *testing.T) {
	f := newApp(t)
	rec := get(t, f.app.Handler(), "/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
}

func TestHTTP_RequestScopeIsolated(t *testing.T) {
	f := newApp(t)
	get(t, f.app, "/hello/one")
	assert.False(t, f.app.IsRegistered("request"))
}

func TestRunCommand(t *testing.T) {
	f := newApp(t)
	ctx := context.Background()

	assert.Equal(t, 3, f.app.RunCommand(ctx, []string{"echo", "a", "b", "c"}))
	assert.Equal(t, "a,b,c\n", f.out.String())

	assert.Equal(t, app.ExitInvalidCommand, f.app.RunCommand(ctx, nil))
	assert.Equal(t, app.ExitInvalidCommand, f.app.RunCommand(ctx, []string{"nope"}))
	assert.Equal(t, app.ExitFailure, f.app.RunCommand(ctx, []string{"broken"}))
	assert.Contains(t, f.logs.String(), "invalid command")
	assert.Contains(t, f.logs.String(), "command failed")

	f.out.Reset()
	assert.Zero(t, f.app.RunCommand(ctx, []string{"list"}))
	assert.Contains(t, f.out.String(), "echo")
	assert.Contains(t, f.out.String(), "broken")
}

func TestBoot_BadRouteFile(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Env: "testing"},
		DB:  config.DBConfig{Driver: "sqlite", Database: ":memory:", MaxOpenConns: 1},
	}
	a := app.New(app.WithConfig(cfg), app.WithLogOutput(io.Discard), app.WithRouteFile("missing/routes.yaml"))
	t.Cleanup(func() { _ = a.Close() })
	assert.Error(t, a.Boot())
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newApp(t)
	f.app.Config().App.Port = "0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.app.Serve(ctx) }()
	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, f.logs.String(), "shutdown complete")
}
