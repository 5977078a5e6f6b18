package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Job is a unit of periodic background work.
type Job struct {
	Name       string
	Interval   time.Duration
	Run        func(ctx context.Context)
	RunOnStart bool
}

type job struct {
	Job
	running atomic.Bool
}

// Scheduler runs every added job on its own ticker. A tick that arrives while the
// previous run of the same job is still in progress is skipped.
type Scheduler struct {
	log     zerolog.Logger
	skipped *prometheus.CounterVec

	mu     sync.Mutex
	jobs   []*job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. skipped may be nil.
func New(log zerolog.Logger, skipped *prometheus.CounterVec) *Scheduler {
	return &Scheduler{
		log:     log.With().Str("component", "scheduler").Logger(),
		skipped: skipped,
	}
}

// Add registers a job. Jobs added after Start are not run.
func (s *Scheduler) Add(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &job{Job: j})
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.log.Info().Str("job", j.Name).Dur("interval", j.Interval).Msg("starting job")
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

// Stop cancels the job loops and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	if j.RunOnStart {
		s.trigger(ctx, j)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx, j)
		}
	}
}

// trigger starts one run of j unless one is already in flight.
func (s *Scheduler) trigger(ctx context.Context, j *job) bool {
	if !j.running.CompareAndSwap(false, true) {
		s.log.Warn().Str("job", j.Name).Msg("previous run still in progress, skipping tick")
		if s.skipped != nil {
			s.skipped.WithLabelValues(j.Name).Inc()
		}
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error().Str("job", j.Name).Interface("panic", r).Msg("job panicked")
			}
		}()

		start := time.Now()
		j.Run(ctx)
		s.log.Debug().Str("job", j.Name).Dur("took", time.Since(start)).Msg("job finished")
	}()

	return true
}
