package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/km-arc/gomvc/framework/container"
)

// RunIDKey is the container entry holding the id of the current scheduled run.
const RunIDKey = "console.run_id"

var ErrJobNotFound = errors.New("scheduled job not found")

// Job is a command run on a cron schedule.
type Job struct {
	ID       string
	Schedule string
	Command  string
	Args     []string
	EntryID  cron.EntryID
}

// Scheduler runs registered commands on cron schedules. Schedules use six
// fields with seconds first ("0 */5 * * * *") or a descriptor ("@hourly").
type Scheduler struct {
	cron    *cron.Cron
	factory *Factory
	base    *container.Container
	log     *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewScheduler builds a stopped scheduler. Every run gets a child of base.
func NewScheduler(f *Factory, base *container.Container, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	cl := cronLogger{log: log.With(slog.String("component", "cron"))}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		factory: f,
		base:    base,
		log:     log,
		jobs:    make(map[string]*Job),
	}
}

// Command schedules the named command. The command must be registered.
func (s *Scheduler) Command(schedule, command string, args ...string) (*Job, error) {
	if !s.factory.Has(command) {
		return nil, &InvalidCommandError{Name: command, Cause: ErrUnknownCommand}
	}
	job := &Job{
		ID:       uuid.NewString(),
		Schedule: schedule,
		Command:  command,
		Args:     slices.Clone(args),
	}
	id, err := s.cron.AddFunc(schedule, func() {
		_, _ = s.run(context.Background(), job)
	})
	if err != nil {
		return nil, fmt.Errorf("console: schedule %q for %s: %w", schedule, command, err)
	}
	job.EntryID = id

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	s.log.Info("command scheduled",
		slog.String("job_id", job.ID),
		slog.String("command", command),
		slog.String("schedule", schedule),
	)
	return job, nil
}

// Remove unschedules the job with id.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("console: %w: %s", ErrJobNotFound, id)
	}
	s.cron.Remove(job.EntryID)
	s.log.Info("command unscheduled", slog.String("job_id", id), slog.String("command", job.Command))
	return nil
}

// Jobs returns the scheduled jobs ordered by command name.
func (s *Scheduler) Jobs() []*Job {
	s.mu.Lock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b *Job) int {
		switch {
		case a.Command < b.Command:
			return -1
		case a.Command > b.Command:
			return 1
		}
		return 0
	})
	return out
}

// Next returns the next activation time of job id, zero when not started.
func (s *Scheduler) Next(id string) (time.Time, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("console: %w: %s", ErrJobNotFound, id)
	}
	return s.cron.Entry(job.EntryID).Next, nil
}

// RunNow runs job id immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return 1, fmt.Errorf("console: %w: %s", ErrJobNotFound, id)
	}
	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job *Job) (code int, err error) {
	runID := uuid.NewString()
	log := s.log.With(
		slog.String("job_id", job.ID),
		slog.String("run_id", runID),
		slog.String("command", job.Command),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			code, err = 1, fmt.Errorf("console: command %s panicked: %v", job.Command, r)
			log.Error("scheduled command panicked", slog.Any("panic", r))
		}
	}()

	scope := s.base.Child()
	scope.Instance(RunIDKey, runID)
	scope.Instance(container.KeyOf[*slog.Logger](), log)

	code, err = s.factory.Run(ctx, append([]string{job.Command}, job.Args...), scope)
	elapsed := time.Since(start)
	switch {
	case err != nil:
		log.Error("scheduled command failed", slog.Duration("duration", elapsed), slog.Any("error", err))
	case code != 0:
		log.Warn("scheduled command exited non-zero", slog.Duration("duration", elapsed), slog.Int("exit_code", code))
	default:
		log.Info("scheduled command completed", slog.Duration("duration", elapsed))
	}
	return code, err
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", slog.Int("jobs", len(s.Jobs())))
}

// Stop stops scheduling and waits for running commands or ctx, whichever
// ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
