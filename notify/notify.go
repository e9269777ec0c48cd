// Package notify defines the completion notification contract.
//
// When a generation session finishes, the renderer broadcasts a
// PageGeneratedEvent so downstream consumers (cache invalidation,
// sitemap rebuilds, analytics) learn about the new page.
package notify

import "context"

// EventTypePageGenerated is the event_type value for completed pages.
const EventTypePageGenerated = "page_generated"

// PageGeneratedEvent is the notification payload.
type PageGeneratedEvent struct {
	EventType   string `json:"event_type"`
	PageID      string `json:"page_id"`
	Slug        string `json:"slug"`
	SessionID   string `json:"session_id"`
	PageURL     string `json:"page_url"`
	StoragePath string `json:"storage_path,omitempty"`
	Blocks      int    `json:"blocks"`
	DurationMs  int64  `json:"duration_ms"`
	Timestamp   string `json:"timestamp"`
}

// Notifier broadcasts completion events to an external channel.
type Notifier interface {
	// Publish delivers the event. Implementations handle their own
	// retry policy and must respect context cancellation.
	Publish(ctx context.Context, event *PageGeneratedEvent) error

	// Close releases notifier resources.
	Close() error
}

// StubNotifier records published events for testing.
type StubNotifier struct {
	Events []*PageGeneratedEvent
	Err    error
	Closed bool
}

// NewStubNotifier creates a new stub notifier.
func NewStubNotifier() *StubNotifier {
	return &StubNotifier{}
}

// Publish implements Notifier by recording the event.
func (n *StubNotifier) Publish(_ context.Context, event *PageGeneratedEvent) error {
	if n.Err != nil {
		return n.Err
	}
	n.Events = append(n.Events, event)
	return nil
}

// Close implements Notifier.
func (n *StubNotifier) Close() error {
	n.Closed = true
	return nil
}

// Verify StubNotifier implements Notifier.
var _ Notifier = (*StubNotifier)(nil)
