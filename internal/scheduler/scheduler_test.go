package scheduler

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReplacesSameName(t *testing.T) {
	s := New(nil)
	var first, second atomic.Int32
	require.NoError(t, s.Register("scan", "@daily", func(context.Context) error { first.Add(1); return nil }))
	require.NoError(t, s.Register("scan", "@hourly", func(context.Context) error { second.Add(1); return nil }))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "@hourly", jobs[0].Spec)

	require.NoError(t, s.RunNow(context.Background(), "scan"))
	assert.Zero(t, first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestRegister_InvalidSpec(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Register("bad", "not a cron spec", func(context.Context) error { return nil }))
	assert.Empty(t, s.Jobs())
}

func TestRunNow_UnknownJob(t *testing.T) {
	assert.ErrorIs(t, New(nil).RunNow(context.Background(), "nope"), ErrUnknownJob)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := New(nil)
	boom := errors.New("boom")
	require.NoError(t, s.Register("j", "@daily", func(context.Context) error { return boom }))
	assert.ErrorIs(t, s.RunNow(context.Background(), "j"), boom)
}

func TestNewRunSupersedesRunningOne(t *testing.T) {
	s := New(nil)
	started := make(chan struct{})
	var calls atomic.Int32
	require.NoError(t, s.Register("scan", "@daily", func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}))

	firstErr := make(chan error, 1)
	go func() { firstErr <- s.RunNow(context.Background(), "scan") }()
	<-started

	require.NoError(t, s.RunNow(context.Background(), "scan"))
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("first run was not cancelled")
	}
}

func TestScheduledRunSkippedWhenProbeFails(t *testing.T) {
	var ran atomic.Bool
	s := New(func(context.Context) error { return errors.New("offline") })
	require.NoError(t, s.Register("scan", "@daily", func(context.Context) error { ran.Store(true); return nil }))

	err := s.run(context.Background(), "scan", true)
	assert.ErrorIs(t, err, ErrSkipped)
	assert.False(t, ran.Load())

	require.NoError(t, s.RunNow(context.Background(), "scan"), "on-demand runs bypass the probe")
	assert.True(t, ran.Load())
}

func TestUnprobedJobRunsWhileProbeFails(t *testing.T) {
	var scanned, relayed atomic.Bool
	s := New(func(context.Context) error { return errors.New("offline") })
	require.NoError(t, s.Register("scan", "@daily", func(context.Context) error { scanned.Store(true); return nil }))
	require.NoError(t, s.Register("relay", "@every 5s", func(context.Context) error { relayed.Store(true); return nil }, WithoutProbe()))

	assert.ErrorIs(t, s.run(context.Background(), "scan", true), ErrSkipped)
	assert.NoError(t, s.run(context.Background(), "relay", true))
	assert.False(t, scanned.Load())
	assert.True(t, relayed.Load())
}

func TestStartFiresAndStopCancels(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Register("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestConnectivityProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	ok := Connectivity(addr, time.Second)
	assert.NoError(t, ok(context.Background()))

	dbDown := errors.New("db down")
	withCheck := Connectivity(addr, time.Second, func(context.Context) error { return dbDown })
	assert.ErrorIs(t, withCheck(context.Background()), dbDown)

	require.NoError(t, ln.Close())
	assert.Error(t, Connectivity(addr, time.Second)(context.Background()))

	assert.NoError(t, Connectivity("", time.Second)(context.Background()), "empty address skips the dial")
}
