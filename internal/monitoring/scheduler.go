// Package monitoring runs periodic maintenance jobs.
package monitoring

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSweepSpec is the cron spec used for in-memory sweeps.
const DefaultSweepSpec = "@every 1m"

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type sweepJob struct {
	name    string
	sweeper Sweeper
}

// Scheduler runs registered sweeps on cron schedules.
type Scheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs []sweepJob
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		)),
	}
}

// AddSweep registers sweeper under name to run on spec.
func (s *Scheduler) AddSweep(name, spec string, sweeper Sweeper) error {
	job := sweepJob{name: name, sweeper: sweeper}
	if _, err := s.cron.AddFunc(spec, func() { runSweep(context.Background(), job) }); err != nil {
		return fmt.Errorf("schedule %s sweep %q: %w", name, spec, err)
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return nil
}

// RunOnce runs every registered sweep immediately.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	jobs := append([]sweepJob(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		runSweep(ctx, job)
	}
}

// Start begins running the scheduled sweeps in the background.
func (s *Scheduler) Start() {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting maintenance scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for running sweeps to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped maintenance scheduler")
}

func runSweep(ctx context.Context, job sweepJob) {
	removed, err := job.sweeper.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Str("job", job.name).Msg("Sweep failed")
		return
	}
	if removed > 0 {
		log.Debug().Str("job", job.name).Int("removed", removed).Msg("Sweep finished")
	}
}

// cronLogger adapts the global zerolog logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
