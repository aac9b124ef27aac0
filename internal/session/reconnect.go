// ABOUTME: Bounded-backoff reconnect state machine.
// ABOUTME: IDLE -> RECONNECTING(attempt, delay) -> RECONNECTED | EXHAUSTED; 5s start, x1.2, 35 attempts.

package session

import (
	"context"
	"math"
	"time"
)

// reconnectDelayFor returns the delay preceding the given attempt:
// initial * multiplier^(attempt-1).
func (s *Session) reconnectDelayFor(attempt int) time.Duration {
	scale := math.Pow(s.cfg.ReconnectMultiplier, float64(attempt-1))
	return time.Duration(float64(s.cfg.ReconnectInitialDelay) * scale)
}

// beginReconnect arms the first reconnect timer. A closed event while
// already reconnecting (or exhausted) leaves the schedule untouched.
func (s *Session) beginReconnect() {
	if s.state == StateReconnecting || s.state == StateExhausted {
		return
	}

	s.state = StateReconnecting
	s.reconnectAttempt = 1
	s.reconnectDelay = s.reconnectDelayFor(1)
	s.reconnectC = s.clk.After(s.reconnectDelay)

	s.logger.Info("reconnect scheduled",
		"attempt", s.reconnectAttempt,
		"delay", s.reconnectDelay,
	)
}

// reconnectTick fires one reconnect attempt and schedules the next.
// The attempt itself is fire-and-forget: success arrives as a fresh
// connected event, which cancels the schedule. After the final attempt
// the session stays exhausted until an external restart.
func (s *Session) reconnectTick() {
	attempt := s.reconnectAttempt
	s.logger.Info("reconnecting",
		"attempt", attempt,
		"max_attempts", s.cfg.ReconnectMaxAttempts,
	)

	s.do("reconnect", func(ctx context.Context) error {
		return s.transport.Reconnect(ctx)
	})

	if attempt >= s.cfg.ReconnectMaxAttempts {
		s.state = StateExhausted
		s.reconnectC = nil
		s.logger.Error("reconnect attempts exhausted, giving up", "attempts", attempt)
		return
	}

	s.reconnectAttempt = attempt + 1
	s.reconnectDelay = s.reconnectDelayFor(attempt + 1)
	s.reconnectC = s.clk.After(s.reconnectDelay)
}

// cancelReconnect clears any pending reconnect timer and resets the
// attempt counter. Called on every successful connected event.
func (s *Session) cancelReconnect() {
	s.reconnectC = nil
	s.reconnectAttempt = 1
	s.reconnectDelay = s.cfg.ReconnectInitialDelay
}
