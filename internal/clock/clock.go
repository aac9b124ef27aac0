// ABOUTME: Clock abstraction so timer-driven code can be tested deterministically.
// ABOUTME: Production code injects Real(); tests inject a Fake with manual advancement.

package clock

import "time"

// Clock abstracts the time operations the session manager performs.
// Production code injects Real(); tests inject Fake() and advance time
// manually to fire keep-alive ticks and reconnect timers on demand.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed. Equivalent to time.After. If d <= 0 the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a Ticker delivering ticks on C every d. Panics
	// if d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop to
// release it. C has capacity 1 and drops ticks when the consumer falls
// behind, matching time.Ticker.
type Ticker struct {
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. No more ticks arrive on C after Stop
// returns. Stop does not close C.
func (t *Ticker) Stop() { t.stopFunc() }
