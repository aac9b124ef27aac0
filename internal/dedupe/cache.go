// ABOUTME: Thread-safe TTL cache of already-delivered content events.
// ABOUTME: Suppresses duplicate content notifications when the transport replays events after a reconnect.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// key identifies one delivered content event.
type key struct {
	conversationID string
	sequence       int64
}

// cacheEntry stores the timestamp and list element for a cached key.
type cacheEntry struct {
	timestamp time.Time
	element   *list.Element
}

// Cache tracks which (conversation, sequence) content events have
// already been emitted downstream. TTL-based and size-limited; uses a
// doubly-linked list to maintain insertion order for O(1) eviction.
type Cache struct {
	mu      sync.Mutex
	seen    map[key]*cacheEntry
	order   *list.List // keys in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a delivered-event cache with the specified TTL and
// maximum size. A background goroutine periodically removes expired
// entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[key]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// CheckAndMark atomically checks whether the event was already
// delivered and marks it if not. Returns true for a duplicate, false
// if the event is new and now marked.
func (c *Cache) CheckAndMark(conversationID string, sequence int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{conversationID: conversationID, sequence: sequence}
	entry, ok := c.seen[k]
	if ok && time.Since(entry.timestamp) < c.ttl {
		return true
	}

	c.markLocked(k)
	return false
}

// Forget drops every entry belonging to a conversation. Called when
// the conversation leaves the tracked set so a later re-join starts
// clean.
func (c *Cache) Forget(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.seen {
		if k.conversationID == conversationID {
			c.order.Remove(entry.element)
			delete(c.seen, k)
		}
	}
}

// markLocked records a delivery. Must be called with mu held.
func (c *Cache) markLocked(k key) {
	now := time.Now()

	if entry, exists := c.seen[k]; exists {
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(k)
	c.seen[k] = &cacheEntry{
		timestamp: now,
		element:   elem,
	}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *Cache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	k, _ := front.Value.(key)
	c.order.Remove(front)
	delete(c.seen, k)
}

// cleanup runs in a background goroutine, periodically removing
// expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *Cache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, entry := range c.seen {
		if now.Sub(entry.timestamp) > c.ttl {
			c.order.Remove(entry.element)
			delete(c.seen, k)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
