package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pawnline/loanengine/internal/application/dto"
)

// Runner executes named jobs in order.
type Runner interface {
	RunSequence(ctx context.Context, names []string, req dto.JobRequest) ([]dto.JobSummary, error)
}

// Group is a list of jobs run in order whenever Spec fires.
type Group struct {
	Name string
	Spec string
	Jobs []string
}

// Config lists the job groups. Specs are standard five-field cron
// expressions read in Location unless they carry a CRON_TZ= prefix.
type Config struct {
	Groups   []Group
	Location *time.Location
}

// Scheduler fires job groups from cron entries. A group whose previous run
// is still going when it fires again is skipped, not queued.
type Scheduler struct {
	runner Runner
	loc    *time.Location
	logger *slog.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

// New registers one cron entry per group. A nil Location means UTC.
func New(runner Runner, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		runner: runner,
		loc:    loc,
		logger: logger,
		ctx:    context.Background(),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID, len(cfg.Groups)),
	}

	for _, g := range cfg.Groups {
		if len(g.Jobs) == 0 {
			continue
		}
		id, err := s.cron.AddFunc(g.Spec, func() {
			s.Fire(s.runContext(), g, time.Now())
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", g.Name, g.Spec, err)
		}
		s.entries[g.Name] = id
	}
	return s, nil
}

// Start runs the cron loop until ctx is cancelled, then waits for any group
// in progress to return. Slots missed while the process was down are not
// caught up; use the admin RunJob call for that.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	for name, id := range s.entries {
		s.logger.Info("job group scheduled", "group", name, "next", s.cron.Entry(id).Next)
	}
	s.logger.Info("scheduler started", "location", s.loc.String())

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Fire runs the group's jobs for the calendar date of at in the scheduler's
// location.
func (s *Scheduler) Fire(ctx context.Context, g Group, at time.Time) {
	asOf := calendarDay(at.In(s.loc))
	summaries, err := s.runner.RunSequence(ctx, g.Jobs, dto.JobRequest{AsOf: asOf})
	for _, sum := range summaries {
		s.logger.Info("scheduled job finished",
			"group", g.Name,
			"job", sum.Job,
			"as_of", sum.AsOf.Format(time.DateOnly),
			"processed", sum.Processed,
			"skipped", sum.Skipped,
			"failed", sum.Failed,
			"duration", sum.FinishedAt.Sub(sum.StartedAt),
		)
	}
	if err != nil {
		s.logger.Error("scheduled jobs failed", "group", g.Name, "jobs", g.Jobs, "error", err)
	}
}

func (s *Scheduler) entry(name string) (cron.Entry, bool) {
	id, ok := s.entries[name]
	if !ok {
		return cron.Entry{}, false
	}
	return s.cron.Entry(id), true
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// calendarDay maps a local wall-clock time to midnight UTC of the same
// calendar date, the form every job uses for AsOf.
func calendarDay(local time.Time) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.logger.Warn("job group still running, skipping this slot")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
