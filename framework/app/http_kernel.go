package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/gomvc/framework/container"
	gohttp "github.com/km-arc/gomvc/framework/http"
)

const shutdownTimeout = 10 * time.Second

// Handler returns the HTTP front controller: chi's request middleware, the
// public directory under /static/ and a catch-all that hands every other
// request to the route matcher. Boot must have run.
func (a *Application) Handler() http.Handler {
	cfg := a.Config()
	log := a.Logger()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	if dir := cfg.App.PublicDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		}
	}
	r.HandleFunc("/*", a.dispatch)
	return r
}

// ServeHTTP dispatches without the middleware stack.
func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r)
}

// dispatch runs one request in its own child container. Config, routes and
// view are inherited from the application container; the request and a
// request-scoped logger are registered on the child.
func (a *Application) dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := a.Logger()
	if id := middleware.GetReqID(ctx); id != "" {
		log = log.With(slog.String("request_id", id))
	}

	req := gohttp.NewRequest(r)
	scope := a.Child()
	scope.Instance("request", req)
	scope.Instance(container.KeyOf[*slog.Logger](), log)

	res, err := a.Matcher().FindAndRun(ctx, req, scope)
	if err != nil {
		res = a.errorHandler(log).Render(req, err)
	}
	if err := res.Send(w); err != nil {
		log.Error("failed to write response", slog.String("path", req.Path()), slog.Any("error", err))
	}
}

func (a *Application) errorHandler(log *slog.Logger) *ErrorHandler {
	h := &ErrorHandler{Log: log, Debug: a.IsDebug()}
	if v, err := container.Get[*gohttp.View](a.Container, "view"); err == nil {
		h.View = v
	}
	return h
}

// Serve starts the scheduler and the HTTP server on APP_PORT and blocks until
// ctx is done, then shuts both down and closes the application. Boot must
// have run.
func (a *Application) Serve(ctx context.Context) error {
	cfg := a.Config()
	log := a.Logger()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := a.Scheduler()
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server started",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.App.Env),
			slog.String("url", fmt.Sprintf("%s:%s", cfg.App.URL, cfg.App.Port)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	}

	shutdownCtx, cancel := shutdownContext(ctx)
	defer cancel()
	errs := []error{serveErr}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("app: http shutdown: %w", err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("app: scheduler stop: %w", err))
	}
	errs = append(errs, a.Close())

	if err := errors.Join(errs...); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
		return err
	}
	log.Info("shutdown complete")
	return nil
}
