// Package retry provides the bounded geometric backoff used by the channel
// resolver and the asset fetcher.
package retry

import (
	"context"
	"time"
)

// State tracks one bounded retry loop. Attempt counts the attempts already
// made; Backoff is the wait used when the server gives no hint.
type State struct {
	Attempt     int
	MaxAttempts int
	Backoff     time.Duration
	Growth      float64
}

// New returns a State for at most maxAttempts attempts. A growth below 1 is
// treated as 1.
func New(maxAttempts int, initial time.Duration, growth float64) *State {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if growth < 1 {
		growth = 1
	}
	return &State{MaxAttempts: maxAttempts, Backoff: initial, Growth: growth}
}

// Next records a failed attempt and returns how long to wait before the
// next one. ok is false once MaxAttempts attempts have been made. A positive
// suggested wait from the server takes precedence over the computed backoff;
// the computed backoff grows either way.
func (s *State) Next(suggested time.Duration) (wait time.Duration, ok bool) {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return 0, false
	}
	wait = s.Backoff
	if suggested > 0 {
		wait = suggested
	}
	s.Backoff = time.Duration(float64(s.Backoff) * s.Growth)
	return wait, true
}

// Remaining returns how many attempts are left.
func (s *State) Remaining() int {
	if n := s.MaxAttempts - s.Attempt; n > 0 {
		return n
	}
	return 0
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
