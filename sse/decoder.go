// Package sse implements the client side of the text/event-stream wire
// format: an incremental decoder plus an HTTP client that opens a stream.
//
// Only the fields the generation protocol uses are handled: `event:`,
// `data:` (multi-line, joined with newlines), `id:` and comment lines.
// `retry:` hints are ignored; reconnection policy is owned by the renderer.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one decoded server-sent event.
type Event struct {
	// Name is the event name from the `event:` field.
	// Empty for unnamed events.
	Name string
	// Data is the concatenated `data:` field value. A nil Data means the
	// event carried no data lines at all — the protocol uses a data-less
	// `error` event to signal a transport-level drop.
	Data []byte
	// LastID is the most recent `id:` field value seen on the stream.
	LastID string
}

// Decoder incrementally decodes server-sent events from a reader.
// Not safe for concurrent use.
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
}

// maxLineSize bounds a single SSE line. Block markup arrives as one data
// line, so this must comfortably exceed the largest block the server emits.
const maxLineSize = 4 << 20

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next complete event from the stream.
// Returns io.EOF when the stream ends cleanly; any other error is a
// transport failure.
func (d *Decoder) Next() (*Event, error) {
	var (
		name     string
		data     []string
		haveData bool
	)

	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		// Blank line dispatches the pending event, if any.
		if line == "" {
			if name == "" && !haveData {
				continue
			}
			ev := &Event{Name: name, LastID: d.lastID}
			if haveData {
				ev.Data = []byte(strings.Join(data, "\n"))
			}
			return ev, nil
		}

		// Comment line, keep-alive ping.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
			haveData = true
		case "id":
			d.lastID = value
		default:
			// Unknown fields are ignored per the SSE spec; the event
			// *names* are the closed contract, not the field set.
		}
	}

	if err := d.scanner.Err(); err != nil {
		return nil, err
	}

	// Stream closed mid-event: discard the partial event.
	return nil, io.EOF
}

// splitField splits an SSE line into field name and value.
// A single leading space after the colon is stripped per the
// event-stream format.
func splitField(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
