package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_Validation(t *testing.T) {
	s := NewService(nil)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add(Job{Schedule: "@every 1h", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "x", Schedule: "@every 1h"}))
	assert.Error(t, s.Add(Job{Name: "x", Schedule: "not a schedule", Run: noop}))

	require.NoError(t, s.Add(Job{Name: "x", Schedule: "@every 1h", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "x", Schedule: "@every 1h", Run: noop}))

	next, ok := s.Next("x")
	assert.True(t, ok)
	assert.True(t, next.IsZero(), "next is only computed once started")

	s.Remove("x")
	_, ok = s.Next("x")
	assert.False(t, ok)
}

func TestRunNow(t *testing.T) {
	s := NewService(nil)
	run := s.RunNow(Job{Name: "refresh", Run: func(context.Context) error { return errors.New("endpoint down") }})
	assert.Equal(t, "refresh", run.Job)
	assert.Equal(t, "endpoint down", run.Error)

	last, ok := s.LastRun("refresh")
	require.True(t, ok)
	assert.Equal(t, run, last)
}

func TestRunNow_Timeout(t *testing.T) {
	s := NewService(nil)
	run := s.RunNow(Job{Name: "slow", Timeout: 10 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	assert.Equal(t, context.DeadlineExceeded.Error(), run.Error)
}

func TestStartStop_RunsScheduledJob(t *testing.T) {
	s := NewService(nil)
	var runs atomic.Int32
	require.NoError(t, s.Add(Job{Name: "tick", Schedule: "@every 1s", Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := NewService(nil)
	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, s.Add(Job{Name: "long", Schedule: "@every 1s", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())
}
