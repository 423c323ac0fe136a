// Package console runs named commands built by the resolver, either from the
// command line or on a cron schedule.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/km-arc/gomvc/framework/container"
	"github.com/km-arc/gomvc/framework/resolver"
)

var (
	ErrMissingCommand = errors.New("no command given")
	ErrUnknownCommand = errors.New("command is not registered")
	ErrNotACommand    = errors.New("class does not implement Command")
)

// Command is a unit of CLI work. Run returns the process exit code.
type Command interface {
	Run(ctx context.Context, args []string) (int, error)
}

// InvalidCommandError reports a missing or unknown command identifier.
type InvalidCommandError struct {
	Name  string
	Cause error
}

func (e *InvalidCommandError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("console: %v", e.Cause)
	}
	return fmt.Sprintf("console: invalid command %q: %v", e.Name, e.Cause)
}

func (e *InvalidCommandError) Unwrap() error { return e.Cause }

// Output is where commands write their results.
type Output struct {
	io.Writer
}

func NewOutput(w io.Writer) *Output { return &Output{Writer: w} }

// Entry describes one registered command.
type Entry struct {
	Name        string
	Class       string
	Description string
}

// Factory maps command identifiers to resolver classes.
type Factory struct {
	resolver *resolver.Resolver
	log      *slog.Logger

	mu       sync.RWMutex
	commands map[string]Entry
}

func NewFactory(res *resolver.Resolver, log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	return &Factory{resolver: res, log: log, commands: make(map[string]Entry)}
}

// Register maps name to class. A later registration of the same name wins.
func (f *Factory) Register(name, class, description string) error {
	if name == "" {
		return &InvalidCommandError{Cause: ErrMissingCommand}
	}
	if !f.resolver.Classes().Has(class) {
		return &InvalidCommandError{Name: name, Cause: fmt.Errorf("%w: %s", resolver.ErrUnknownClass, class)}
	}
	f.mu.Lock()
	f.commands[name] = Entry{Name: name, Class: class, Description: description}
	f.mu.Unlock()
	return nil
}

// Has reports whether name is registered.
func (f *Factory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.commands[name]
	return ok
}

// Entries returns the registered commands sorted by name.
func (f *Factory) Entries() []Entry {
	f.mu.RLock()
	out := make([]Entry, 0, len(f.commands))
	for _, e := range f.commands {
		out = append(out, e)
	}
	f.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Make builds the command registered under name with dependencies from c.
// Resolution failures are returned as the resolver reports them.
func (f *Factory) Make(ctx context.Context, name string, c *container.Container) (Command, error) {
	if name == "" {
		return nil, &InvalidCommandError{Cause: ErrMissingCommand}
	}
	f.mu.RLock()
	entry, ok := f.commands[name]
	f.mu.RUnlock()
	if !ok {
		return nil, &InvalidCommandError{Name: name, Cause: ErrUnknownCommand}
	}

	instance, err := f.resolver.Resolve(ctx, entry.Class, c)
	if err != nil {
		return nil, err
	}
	cmd, ok := instance.(Command)
	if !ok {
		return nil, &InvalidCommandError{Name: name, Cause: fmt.Errorf("%w: %T", ErrNotACommand, instance)}
	}
	return cmd, nil
}

// Run treats args[0] as the command name and passes it the rest.
func (f *Factory) Run(ctx context.Context, args []string, c *container.Container) (int, error) {
	var name string
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}
	cmd, err := f.Make(ctx, name, c)
	if err != nil {
		return 0, err
	}
	f.log.DebugContext(ctx, "running command", slog.String("command", name), slog.Any("args", args))
	return cmd.Run(ctx, args)
}

// ListCommand prints the registered commands.
type ListCommand struct {
	factory *Factory
	out     *Output
}

func NewListCommand(f *Factory, out *Output) *ListCommand {
	return &ListCommand{factory: f, out: out}
}

func (l *ListCommand) Run(_ context.Context, _ []string) (int, error) {
	entries := l.factory.Entries()
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Name))
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(l.out, "  %-*s  %s\n", width, e.Name, e.Description); err != nil {
			return 1, err
		}
	}
	return 0, nil
}
