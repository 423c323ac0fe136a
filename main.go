package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/km-arc/gomvc/bootstrap"
	"github.com/km-arc/gomvc/framework/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run handles:
//
//	gomvc [--env-file=.env] serve
//	gomvc [--env-file=.env] <command> [args...]
func run(args []string) int {
	flags := pflag.NewFlagSet("gomvc", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	envFiles := flags.StringSlice("env-file", nil, "environment files to load (default .env)")
	routes := flags.String("routes", "", "route file, overrides ROUTES_FILE")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: gomvc [flags] serve | <command> [args...]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return app.ExitInvalidCommand
	}

	opts := []app.Option{app.WithEnvFiles(*envFiles...)}
	if *routes != "" {
		opts = append(opts, app.WithRouteFile(*routes))
	}
	application := bootstrap.New(opts...)
	if err := application.Boot(); err != nil {
		_ = application.Close()
		return app.ExitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rest := flags.Args()
	if len(rest) == 0 || rest[0] == "serve" {
		if err := application.Serve(ctx); err != nil {
			return app.ExitFailure
		}
		return 0
	}

	code := application.RunCommand(ctx, rest)
	if err := application.Close(); err != nil && code == 0 {
		code = app.ExitFailure
	}
	return code
}
