package examsession

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTickInterval is the period of the countdown.
const DefaultTickInterval = time.Second

// Ticker is the part of *time.Ticker the timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock is a Clock backed by the time package.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// Timer drives a session's countdown.
type Timer struct {
	session  *Session
	interval time.Duration
	clock    Clock
	log      zerolog.Logger
}

// NewTimer creates a Timer. A non-positive interval means DefaultTickInterval
// and a nil clock means SystemClock.
func NewTimer(session *Session, interval time.Duration, clock Clock, log zerolog.Logger) *Timer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Timer{
		session:  session,
		interval: interval,
		clock:    clock,
		log:      log,
	}
}

// Run calls Advance once per tick until ctx is cancelled or the session is
// submitted, whichever happens first. The ticker is stopped before Run returns.
func (t *Timer) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.Debug().Msg("Timer released")
			return
		case <-t.session.Done():
			t.log.Debug().Msg("Timer stopped after submission")
			return
		case <-ticker.C():
			t.session.Advance()
		}
	}
}
