// Package scheduler runs named periodic jobs on cron schedules. Registering a
// name again replaces the previous registration, a new run of a job cancels
// its still-running predecessor, and scheduled runs are skipped while the
// connectivity probe fails unless the job was registered WithoutProbe.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"indico/internal/metrics"

	"github.com/robfig/cron/v3"
)

type Job func(ctx context.Context) error

// Probe reports whether the dependencies of a run are reachable.
type Probe func(ctx context.Context) error

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrSkipped    = errors.New("run skipped: connectivity unavailable")
)

type entry struct {
	id       cron.EntryID
	spec     string
	job      Job
	unprobed bool
	seq      uint64
	cancel   context.CancelFunc
}

// Option adjusts a single registration.
type Option func(*entry)

// WithoutProbe lets scheduled runs of the job proceed while the
// connectivity probe fails. Use it for jobs that only touch local state.
func WithoutProbe() Option {
	return func(e *entry) { e.unprobed = true }
}

type JobInfo struct {
	Name    string    `json:"name"`
	Spec    string    `json:"spec"`
	Next    time.Time `json:"next"`
	Running bool      `json:"running"`
}

type Scheduler struct {
	cron  *cron.Cron
	probe Probe
	log   *slog.Logger

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
	mu   sync.Mutex
	jobs map[string]*entry
}

// New creates a stopped scheduler. probe may be nil.
func New(probe Probe) *Scheduler {
	log := slog.Default().With("component", "scheduler")
	ctx, stop := context.WithCancel(context.Background())
	return &Scheduler{
		cron:  cron.New(cron.WithLogger(cronLogger{log: log}), cron.WithChain(cron.Recover(cronLogger{log: log}))),
		probe: probe,
		log:   log,
		ctx:   ctx,
		stop:  stop,
		jobs:  make(map[string]*entry),
	}
}

// Register schedules job under name, replacing any previous registration of
// the same name. A run of the replaced job still in flight is cancelled.
func (s *Scheduler) Register(name, spec string, job Job, opts ...Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.run(s.ctx, name, true); err != nil && !errors.Is(err, ErrSkipped) {
			s.log.Warn("scheduled run failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old.id)
		if old.cancel != nil {
			old.cancel()
		}
		s.log.Info("job replaced", "job", name, "spec", spec)
	}
	e := &entry{id: id, spec: spec, job: job}
	for _, opt := range opts {
		opt(e)
	}
	s.jobs[name] = e
	return nil
}

// RunNow runs name immediately, bypassing the probe, and returns its error.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	return s.run(ctx, name, false)
}

func (s *Scheduler) run(parent context.Context, name string, probe bool) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.cancel != nil {
		s.log.Info("superseding previous run", "job", name)
		e.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	e.seq++
	seq := e.seq
	e.cancel = cancel
	job := e.job
	probe = probe && !e.unprobed
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if e.seq == seq {
			e.cancel = nil
		}
		s.mu.Unlock()
		cancel()
		s.wg.Done()
	}()

	if probe && s.probe != nil {
		if err := s.probe(ctx); err != nil {
			metrics.JobRuns.WithLabelValues(name, "skipped").Inc()
			s.log.Warn("connectivity unavailable, skipping run until next window", "job", name, "error", err)
			return fmt.Errorf("%w: %v", ErrSkipped, err)
		}
	}

	start := time.Now()
	err := job(ctx)
	result := "ok"
	switch {
	case err != nil && ctx.Err() != nil:
		result = "superseded"
	case err != nil:
		result = "error"
	}
	metrics.JobRuns.WithLabelValues(name, result).Inc()
	s.log.Debug("job finished", "job", name, "result", result, "duration", time.Since(start))
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.Jobs()))
}

// Stop halts scheduling, cancels running jobs and waits for them or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	s.stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for name, e := range s.jobs {
		out = append(out, JobInfo{
			Name:    name,
			Spec:    e.spec,
			Next:    s.cron.Entry(e.id).Next,
			Running: e.cancel != nil,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger adapts cron's logger to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
