// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a named periodic task
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Run records one job execution
type Run struct {
	Job      string        `json:"job"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Service provides job scheduling. Overlapping runs of a job are skipped.
type Service struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	lastRun map[string]Run
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewService creates a new scheduler service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		logger:  logger,
		jobs:    make(map[string]cron.EntryID),
		lastRun: make(map[string]Run),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add schedules a job. Names are unique.
func (s *Service) Add(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s has no run function", job.Name)
	}
	schedule, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression for job %s: %w", job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %s already scheduled", job.Name)
	}

	s.jobs[job.Name] = s.cron.Schedule(schedule, cron.FuncJob(func() { s.execute(job) }))
	s.logger.Info("scheduled job", "job", job.Name, "schedule", job.Schedule, "next", schedule.Next(time.Now()))
	return nil
}

// Remove unschedules a job
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}
}

// RunNow executes a job synchronously outside its schedule
func (s *Service) RunNow(job Job) Run {
	return s.execute(job)
}

func (s *Service) execute(job Job) Run {
	ctx := s.ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	run := Run{Job: job.Name, Started: time.Now()}
	s.logger.Info("executing job", "job", job.Name)
	err := job.Run(ctx)
	run.Duration = time.Since(run.Started)
	if err != nil {
		run.Error = err.Error()
		s.logger.Error("job failed", "job", job.Name, "duration", run.Duration, "error", err)
	} else {
		s.logger.Info("job completed", "job", job.Name, "duration", run.Duration)
	}

	s.mu.Lock()
	s.lastRun[job.Name] = run
	s.mu.Unlock()
	return run
}

// LastRun returns the most recent execution of a job
func (s *Service) LastRun(name string) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lastRun[name]
	return r, ok
}

// Next returns the next scheduled time of a job
func (s *Service) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Start starts the scheduler
func (s *Service) Start() {
	s.cron.Start()
	s.logger.Info("job scheduler started")
}

// Stop stops the scheduler, cancels running jobs and waits for them up to ctx
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

// cronLogger adapts slog to the cron logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
