package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/pipeline"
)

// Watch is a saved search re-run on a schedule. Schedule is a standard
// five-field cron expression or a descriptor such as "@every 30m".
type Watch struct {
	Name     string
	Term     string
	Source   model.Source
	User     string
	Schedule string
}

// Searcher runs one search. *pipeline.Pipeline satisfies it.
type Searcher interface {
	Search(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
}

// Scheduler owns the watch loop: every watch runs once at startup and then on
// its own cron schedule. A watch still running when its next tick fires is
// skipped for that tick.
type Scheduler struct {
	watches  []Watch
	searcher Searcher
	pause    time.Duration
	logger   *slog.Logger
	cron     *cron.Cron

	// ctx is the Run context, read by cron jobs once cron has started.
	ctx context.Context
}

// NewScheduler parses every watch schedule up front so a bad expression fails
// at startup rather than silently never firing. pause is the delay between
// watches in the startup round.
func NewScheduler(watches []Watch, searcher Searcher, pause time.Duration, logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		watches:  watches,
		searcher: searcher,
		pause:    pause,
		logger:   logger,
		ctx:      context.Background(),
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
	}
	for _, w := range watches {
		job := cron.NewChain(cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
			s.runWatch(s.ctx, w)
		}))
		if _, err := s.cron.AddJob(w.Schedule, job); err != nil {
			return nil, fmt.Errorf("watch %q: invalid schedule %q: %w", w.Name, w.Schedule, err)
		}
	}
	return s, nil
}

// Run runs one immediate round, then hands the watches to cron until ctx is
// cancelled. It returns nil on cancellation once running searches finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "watches", len(s.watches))

	s.runAll(ctx)
	if ctx.Err() != nil {
		s.logger.Info("shutting down scheduler")
		return nil
	}

	s.ctx = ctx
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Debug("watch scheduled", "entry", e.ID, "next", e.Next)
	}

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// RunOnce runs every watch a single time and returns.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runAll(ctx)
}

// runAll runs every watch sequentially with a short pause between them.
func (s *Scheduler) runAll(ctx context.Context) {
	for i, w := range s.watches {
		if ctx.Err() != nil {
			return
		}
		s.runWatch(ctx, w)

		if i < len(s.watches)-1 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.pause):
			}
		}
	}
}

func (s *Scheduler) runWatch(ctx context.Context, w Watch) {
	resp, err := s.searcher.Search(ctx, pipeline.Request{Term: w.Term, Source: w.Source, User: w.User})
	if err != nil {
		s.logger.Error("watch failed", "watch", w.Name, "source", w.Source, "error", err)
		return
	}
	s.logger.Info("watch ran",
		"watch", w.Name,
		"source", w.Source,
		"jobs", len(resp.Jobs),
		"new", len(resp.NewJobs),
	)
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
