package providers

import (
	"io"
	"log/slog"
	"os"

	"github.com/km-arc/gomvc/framework/console"
	"github.com/km-arc/gomvc/framework/container"
	"github.com/km-arc/gomvc/framework/resolver"
)

// Schedule is one cron entry for a registered command.
type Schedule struct {
	Spec    string
	Command string
	Args    []string
}

// ── ConsoleServiceProvider ────────────────────────────────────────────────────

// ConsoleServiceProvider registers the command factory and the scheduler.
// The built-in "list" command is always available.
//
// Bound abstracts:
//   - "commands"       → *console.Factory
//   - "scheduler"      → *console.Scheduler
//   - "console.output" → *console.Output
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Providers\ConsoleSupportServiceProvider
//	$app->singleton(Schedule::class, fn() => new Schedule());
type ConsoleServiceProvider struct {
	container.BaseProvider
	Commands  []console.Entry
	Schedules []Schedule

	// Output replaces stdout for command output.
	Output io.Writer
}

func (p *ConsoleServiceProvider) Register(app *container.Container) {
	out := p.Output
	if out == nil {
		out = os.Stdout
	}
	instance(app, "console.output", console.NewOutput(out))

	singleton(app, "commands", func(c *container.Container) *console.Factory {
		res := container.MustGet[*resolver.Resolver](c, "resolver")
		return console.NewFactory(res, loggerOf(c).With(slog.String("component", "console")))
	})
	singleton(app, "scheduler", func(c *container.Container) *console.Scheduler {
		return console.NewScheduler(container.MustGet[*console.Factory](c, "commands"), c, loggerOf(c))
	})
}

func (p *ConsoleServiceProvider) Boot(app *container.Container) error {
	classes := container.MustGet[*resolver.Registry](app, "classes")
	if !classes.Has("console.list") {
		if err := classes.Register("console.list", console.NewListCommand); err != nil {
			return err
		}
	}

	factory := container.MustGet[*console.Factory](app, "commands")
	if err := factory.Register("list", "console.list", "List the available commands"); err != nil {
		return err
	}
	for _, e := range p.Commands {
		if err := factory.Register(e.Name, e.Class, e.Description); err != nil {
			return err
		}
	}

	scheduler := container.MustGet[*console.Scheduler](app, "scheduler")
	for _, s := range p.Schedules {
		if _, err := scheduler.Command(s.Spec, s.Command, s.Args...); err != nil {
			return err
		}
	}
	return nil
}
