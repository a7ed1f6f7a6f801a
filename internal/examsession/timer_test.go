package examsession

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

type manualClock struct {
	ticker *manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{ticker: &manualTicker{ch: make(chan time.Time)}}
}

func (c *manualClock) NewTicker(time.Duration) Ticker { return c.ticker }

// tick blocks until the timer has received the tick.
func (c *manualClock) tick(t *testing.T) {
	t.Helper()
	select {
	case c.ticker.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("timer did not consume tick")
	}
}

func runTimer(ctx context.Context, timer *Timer) <-chan struct{} {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		timer.Run(ctx)
	}()
	return finished
}

func TestTimerExpiresSessionAndReleasesTicker(t *testing.T) {
	rec := &submitRecorder{}
	s, err := New(definition(3, 1), WithSubmitHandler(rec.handle))
	require.NoError(t, err)

	clock := newManualClock()
	finished := runTimer(context.Background(), NewTimer(s, time.Second, clock, zerolog.Nop()))

	clock.tick(t)
	clock.tick(t)
	assert.Eventually(t, func() bool { return s.State().RemainingSeconds == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, model.SessionStatusActive, s.Status())

	clock.tick(t)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("timer kept running after expiry")
	}
	assert.True(t, clock.ticker.stopped.Load())
	assert.Equal(t, model.SessionStatusSubmitted, s.Status())
	assert.Equal(t, 1, rec.count())
}

func TestTimerStopsOnManualSubmit(t *testing.T) {
	s, err := New(definition(60, 1))
	require.NoError(t, err)

	clock := newManualClock()
	finished := runTimer(context.Background(), NewTimer(s, time.Second, clock, zerolog.Nop()))

	clock.tick(t)
	require.Eventually(t, func() bool { return s.State().RemainingSeconds == 59 }, time.Second, time.Millisecond)
	s.Submit()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("timer kept running after manual submit")
	}
	assert.True(t, clock.ticker.stopped.Load())

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 59, snap.RemainingSeconds)
	assert.Equal(t, model.SubmitReasonManual, snap.Reason)
}

func TestTimerReleasedOnCancel(t *testing.T) {
	s, err := New(definition(60, 1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	clock := newManualClock()
	finished := runTimer(ctx, NewTimer(s, time.Second, clock, zerolog.Nop()))

	clock.tick(t)
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("timer ignored cancellation")
	}
	assert.True(t, clock.ticker.stopped.Load())
	assert.Equal(t, model.SessionStatusActive, s.Status())
	assert.Equal(t, 59, s.State().RemainingSeconds)
}

func TestNewTimerDefaults(t *testing.T) {
	s, err := New(definition(1, 1))
	require.NoError(t, err)

	timer := NewTimer(s, 0, nil, zerolog.Nop())
	assert.Equal(t, DefaultTickInterval, timer.interval)
	assert.Equal(t, SystemClock, timer.clock)
}

func TestTimerWithSystemClock(t *testing.T) {
	s, err := New(definition(2, 1))
	require.NoError(t, err)

	finished := runTimer(context.Background(), NewTimer(s, 5*time.Millisecond, nil, zerolog.Nop()))

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("system clock timer did not expire the session")
	}
	assert.Equal(t, model.SessionStatusSubmitted, s.Status())
}
