// ABOUTME: In-memory fan-out emitter for typed session events
// ABOUTME: Publishes each event to all subscribers of its kind without blocking

package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// Emitter provides in-memory pub/sub for emitted session events.
// Subscribers register for one event kind and receive every event of
// that kind published afterwards. Multiple subscribers per kind fan out
// independently.
type Emitter struct {
	mu          sync.RWMutex
	subscribers map[Kind]map[string]chan Event // kind -> subID -> ch
	closed      bool
	logger      *slog.Logger
}

// NewEmitter creates an emitter. Pass nil logger for default.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		subscribers: make(map[Kind]map[string]chan Event),
		logger:      logger.With("component", "emitter"),
	}
}

// Subscribe registers a subscriber for events of the given kind.
// Returns a channel that receives events and a subscription ID for
// later unsubscription. The subscription is automatically cleaned up
// when ctx is cancelled.
func (e *Emitter) Subscribe(ctx context.Context, kind Kind) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		close(ch)
		return ch, subID
	}
	if _, ok := e.subscribers[kind]; !ok {
		e.subscribers[kind] = make(map[string]chan Event)
	}
	e.subscribers[kind][subID] = ch
	e.mu.Unlock()

	e.logger.Debug("subscriber added", "kind", kind.String(), "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		e.Unsubscribe(kind, subID)
	}()

	return ch, subID
}

// Publish sends an event to all subscribers of its kind.
// Non-blocking: events are dropped for subscribers whose channels are full.
func (e *Emitter) Publish(event Event) {
	// The read lock is held across the sends so Unsubscribe and Close,
	// which close channels under the write lock, cannot close one
	// mid-send. Sends never block, so the lock is held only briefly.
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, ch := range e.subscribers[event.Kind] {
		select {
		case ch <- event:
			// Sent
		default:
			e.logger.Debug("dropped event for slow subscriber",
				"kind", event.Kind.String())
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (e *Emitter) Unsubscribe(kind Kind, subID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs, ok := e.subscribers[kind]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	if len(subs) == 0 {
		delete(e.subscribers, kind)
	}

	e.logger.Debug("subscriber removed", "kind", kind.String(), "sub_id", subID)
}

// Close shuts down the emitter and closes all subscriber channels.
// Further publishes are dropped and further subscribes return a closed
// channel.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true

	for kind, subs := range e.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(e.subscribers, kind)
	}

	e.logger.Debug("emitter closed")
}
