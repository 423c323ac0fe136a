// Package logging builds the application *slog.Logger.
//
// Local and testing environments get colored console output through tint.
// Production writes JSON to stdout and to a rotating file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/km-arc/gomvc/framework/config"
)

// Options configures New.
type Options struct {
	Env        string
	Level      string
	AppName    string
	Directory  string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output replaces stdout. Tests point it at a buffer.
	Output io.Writer
}

// FromConfig maps the application config onto Options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Env:        cfg.App.Env,
		Level:      cfg.Log.Level,
		AppName:    cfg.App.Name,
		Directory:  cfg.Log.Directory,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
}

// New returns a logger for opts.Env.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(opts.Level, opts.Env)

	if opts.Env != "production" {
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			AddSource:  level == slog.LevelDebug,
			NoColor:    opts.Output != nil,
		}))
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.Directory == "" {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Directory, fileName(opts.AppName)),
		MaxSize:    orDefault(opts.MaxSizeMB, 100),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(io.MultiWriter(out, rotator), handlerOpts))
}

// ParseLevel maps a level name to slog. An empty name means info, or error
// in production.
func ParseLevel(name, env string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "":
		if env == "production" {
			return slog.LevelError
		}
	}
	return slog.LevelInfo
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fileName(app string) string {
	name := strings.ToLower(strings.Join(strings.Fields(app), "-"))
	if name == "" {
		name = "app"
	}
	return name + ".log"
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
