package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pagecraft-io/pagestream/notify"
)

func testEvent() *notify.PageGeneratedEvent {
	return &notify.PageGeneratedEvent{
		EventType:   notify.EventTypePageGenerated,
		PageID:      "my-page",
		Slug:        "my-page",
		SessionID:   "sess-001",
		PageURL:     "/discover/my-page",
		StoragePath: "file:///pages/my-page.html",
		Blocks:      4,
		DurationMs:  2300,
		Timestamp:   "2026-08-23T12:00:00Z",
	}
}

// asyncReceive starts a goroutine that reads one message from the subscriber
// and sends it to the returned channel. Must be called BEFORE Publish to avoid
// deadlocking miniredis's synchronous pub/sub delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestPublish_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	n, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe(DefaultChannel)
	ch := asyncReceive(sub)

	if err := n.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := waitMessage(t, ch)

	var received notify.PageGeneratedEvent
	if err := json.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if received.PageID != "my-page" {
		t.Errorf("expected my-page, got %s", received.PageID)
	}
	if received.EventType != notify.EventTypePageGenerated {
		t.Errorf("expected page_generated, got %s", received.EventType)
	}
	if received.Blocks != 4 {
		t.Errorf("expected 4 blocks, got %d", received.Blocks)
	}
}

func TestPublish_CustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	n, err := New(Config{URL: "redis://" + mr.Addr(), Channel: "custom:pages", Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe("custom:pages")
	ch := asyncReceive(sub)

	if err := n.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitMessage(t, ch)
}

func TestPublish_ContextCanceled(t *testing.T) {
	mr := miniredis.RunT(t)

	n, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := n.Publish(ctx, testEvent()); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New(Config{URL: "not-a-url"}); err == nil {
		t.Error("expected error for invalid URL")
	}
	if _, err := New(Config{URL: "redis://localhost:6379", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}
}

func TestNew_Defaults(t *testing.T) {
	n, err := New(Config{URL: "redis://localhost:6379"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = n.Close() }()

	if n.config.Channel != DefaultChannel {
		t.Errorf("expected default channel %q, got %q", DefaultChannel, n.config.Channel)
	}
	if n.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, n.config.Timeout)
	}
}
