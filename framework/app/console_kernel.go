package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/km-arc/gomvc/framework/console"
)

// Exit codes returned by RunCommand besides the command's own.
const (
	ExitFailure        = 1
	ExitInvalidCommand = 2
)

// ArgsKey is the container entry holding the full console argument list.
const ArgsKey = "console.args"

// RunCommand resolves args[0] as a command in a child container and runs it
// with the remaining arguments. Errors are logged; an unknown or missing
// command exits 2 and any other error at least 1.
func (a *Application) RunCommand(ctx context.Context, args []string) int {
	log := a.Logger()
	scope := a.Child()
	scope.Instance(ArgsKey, args)

	code, err := a.Commands().Run(ctx, args, scope)
	if err == nil {
		return code
	}

	var invalid *console.InvalidCommandError
	if errors.As(err, &invalid) {
		log.Error("invalid command", slog.String("command", invalid.Name), slog.Any("error", err))
		return ExitInvalidCommand
	}
	log.Error("command failed", slog.Any("args", args), slog.Any("error", err))
	if code == 0 {
		code = ExitFailure
	}
	return code
}
