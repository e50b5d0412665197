package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler() *Scheduler {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	s := newTestScheduler()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(Job{Name: "a", Interval: time.Minute, Fn: noop}))
	require.Error(t, s.Register(Job{Name: "a", Interval: time.Minute, Fn: noop}))
	require.Error(t, s.Register(Job{Name: "b", Interval: 0, Fn: noop}))

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, StatusIdle, items[0].Status)
	assert.Equal(t, "1m0s", items[0].Interval)
}

func TestStartRunsJobsPeriodically(t *testing.T) {
	t.Parallel()

	s := newTestScheduler()
	var calls atomic.Int32
	require.NoError(t, s.Register(Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Fn: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, StatusFulfill, items[0].Status)
	assert.NotNil(t, items[0].LastRunAt)
}

func TestRunRecordsFailure(t *testing.T) {
	t.Parallel()

	s := newTestScheduler()
	require.NoError(t, s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Fn:       func(context.Context) error { return errors.New("boom") },
	}))

	require.NoError(t, s.Run(context.Background(), "broken"))
	require.Error(t, s.Run(context.Background(), "missing"))

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, StatusReject, items[0].Status)
	assert.Equal(t, "boom", items[0].Message)
}
