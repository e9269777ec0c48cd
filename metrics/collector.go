// Package metrics provides per-session metrics collection.
//
// The Collector accumulates counters during a single generation session.
// It is a leaf package with no internal dependencies. All increment
// methods are nil-receiver safe so callers never need to guard.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of session metrics.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Stream
	EventsReceived int64
	EventsByType   map[string]int64
	DecodeErrors   int64

	// Blocks / images
	BlocksCompleted int64
	ImagesSwapped   int64

	// Connection lifecycle
	Reconnects        int64
	RecoverableErrors int64

	// Collaborator and persistence failures (non-fatal)
	DecorationFailures  int64
	PersistenceFailures int64

	// Dimensions (informational, set at construction)
	PageID    string
	SessionID string
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	eventsReceived int64
	eventsByType   map[string]int64
	decodeErrors   int64

	blocksCompleted int64
	imagesSwapped   int64

	reconnects        int64
	recoverableErrors int64

	decorationFailures  int64
	persistenceFailures int64

	pageID    string
	sessionID string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(pageID, sessionID string) *Collector {
	return &Collector{
		eventsByType: make(map[string]int64),
		pageID:       pageID,
		sessionID:    sessionID,
	}
}

// IncEvent records one received event of the given type.
func (c *Collector) IncEvent(eventType string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.eventsReceived++
	c.eventsByType[eventType]++
	c.mu.Unlock()
}

// IncDecodeError records a wire decode failure.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// IncBlockCompleted records one block reaching the complete state.
func (c *Collector) IncBlockCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.blocksCompleted++
	c.mu.Unlock()
}

// IncImageSwapped records one placeholder replaced by a ready image.
func (c *Collector) IncImageSwapped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.imagesSwapped++
	c.mu.Unlock()
}

// IncReconnect records one reconnect attempt.
func (c *Collector) IncReconnect() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.reconnects++
	c.mu.Unlock()
}

// IncRecoverableError records a recoverable semantic error (logged, no action).
func (c *Collector) IncRecoverableError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recoverableErrors++
	c.mu.Unlock()
}

// IncDecorationFailure records a block decoration collaborator failure.
func (c *Collector) IncDecorationFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decorationFailures++
	c.mu.Unlock()
}

// IncPersistenceFailure records a swallowed persistence failure.
func (c *Collector) IncPersistenceFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.persistenceFailures++
	c.mu.Unlock()
}

// Snapshot returns an atomic copy of all counters.
// Nil-safe: a nil collector returns a zero snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{EventsByType: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byType := make(map[string]int64, len(c.eventsByType))
	for k, v := range c.eventsByType {
		byType[k] = v
	}

	return Snapshot{
		EventsReceived:      c.eventsReceived,
		EventsByType:        byType,
		DecodeErrors:        c.decodeErrors,
		BlocksCompleted:     c.blocksCompleted,
		ImagesSwapped:       c.imagesSwapped,
		Reconnects:          c.reconnects,
		RecoverableErrors:   c.recoverableErrors,
		DecorationFailures:  c.decorationFailures,
		PersistenceFailures: c.persistenceFailures,
		PageID:              c.pageID,
		SessionID:           c.sessionID,
	}
}
