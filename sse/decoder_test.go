package sse_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pagecraft-io/pagestream/sse"
)

func TestDecoder_NamedEvent(t *testing.T) {
	wire := "event: layout\ndata: {\"blocks\":[\"hero\"]}\n\n"
	dec := sse.NewDecoder(strings.NewReader(wire))

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Name != "layout" {
		t.Errorf("expected name layout, got %q", ev.Name)
	}
	if string(ev.Data) != `{"blocks":["hero"]}` {
		t.Errorf("unexpected data: %s", ev.Data)
	}
}

func TestDecoder_MultipleEvents(t *testing.T) {
	wire := "event: block-start\ndata: {\"blockId\":\"b0\"}\n\n" +
		"event: block-complete\ndata: {\"blockId\":\"b0\"}\n\n"
	dec := sse.NewDecoder(strings.NewReader(wire))

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	if first.Name != "block-start" {
		t.Errorf("expected block-start, got %q", first.Name)
	}

	second, err := dec.Next()
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if second.Name != "block-complete" {
		t.Errorf("expected block-complete, got %q", second.Name)
	}

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after last event, got %v", err)
	}
}

func TestDecoder_MultiLineData(t *testing.T) {
	wire := "event: block-content\ndata: line one\ndata: line two\n\n"
	dec := sse.NewDecoder(strings.NewReader(wire))

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(ev.Data) != "line one\nline two" {
		t.Errorf("data lines must join with newline, got %q", ev.Data)
	}
}

func TestDecoder_DatalessEvent(t *testing.T) {
	// A data-less error event signals a transport-level drop.
	wire := "event: error\n\n"
	dec := sse.NewDecoder(strings.NewReader(wire))

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Name != "error" {
		t.Errorf("expected error event, got %q", ev.Name)
	}
	if ev.Data != nil {
		t.Errorf("expected nil data for payloadless event, got %q", ev.Data)
	}
}

func TestDecoder_CommentsAndCRLF(t *testing.T) {
	wire := ": keep-alive\r\nevent: layout\r\ndata: {}\r\n\r\n"
	dec := sse.NewDecoder(strings.NewReader(wire))

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Name != "layout" {
		t.Errorf("expected layout, got %q", ev.Name)
	}
	if string(ev.Data) != "{}" {
		t.Errorf("expected {}, got %q", ev.Data)
	}
}

func TestDecoder_LastID(t *testing.T) {
	wire := "id: 42\nevent: layout\ndata: {}\n\n"
	dec := sse.NewDecoder(strings.NewReader(wire))

	ev, err := dec.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.LastID != "42" {
		t.Errorf("expected LastID 42, got %q", ev.LastID)
	}
}

func TestDecoder_PartialEventAtEOF(t *testing.T) {
	// Stream cut mid-event: the partial event is discarded.
	wire := "event: block-content\ndata: {\"blockId\""
	dec := sse.NewDecoder(strings.NewReader(wire))

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF for truncated stream, got %v", err)
	}
}
