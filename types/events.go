package types

import (
	"encoding/json"
	"fmt"
)

// EventType is the server event name discriminator.
// The set is closed: DecodeEvent rejects names outside this enum so a
// misbehaving server surfaces as a decode error instead of being silently
// ignored.
type EventType string

// Event type constants, one per named SSE event the generation backend emits.
const (
	EventTypeLayout             EventType = "layout"
	EventTypeBlockStart         EventType = "block-start"
	EventTypeBlockContent       EventType = "block-content"
	EventTypeBlockComplete      EventType = "block-complete"
	EventTypeImagePlaceholder   EventType = "image-placeholder"
	EventTypeImageReady         EventType = "image-ready"
	EventTypeGenerationComplete EventType = "generation-complete"
	EventTypeError              EventType = "error"
)

// IsTerminal returns true if this event type ends the session.
// An error event is only terminal when non-recoverable; that distinction
// lives in the payload, so the renderer decides after decoding.
func (e EventType) IsTerminal() bool {
	return e == EventTypeGenerationComplete
}

// KnownEventTypes returns the closed set of event names, in the order the
// server semantically emits them.
func KnownEventTypes() []EventType {
	return []EventType{
		EventTypeLayout,
		EventTypeBlockStart,
		EventTypeBlockContent,
		EventTypeBlockComplete,
		EventTypeImagePlaceholder,
		EventTypeImageReady,
		EventTypeGenerationComplete,
		EventTypeError,
	}
}

// Event is the decoded form of a single server event.
// Exactly one payload pointer is non-nil, matching Type.
type Event struct {
	Type EventType

	Layout             *LayoutPayload
	BlockStart         *BlockStartPayload
	BlockContent       *BlockContentPayload
	BlockComplete      *BlockCompletePayload
	ImagePlaceholder   *ImagePlaceholderPayload
	ImageReady         *ImageReadyPayload
	GenerationComplete *GenerationCompletePayload
	Error              *ErrorPayload
}

// LayoutPayload announces block type names in render order.
type LayoutPayload struct {
	Blocks []string `json:"blocks"`
}

// BlockStartPayload announces that generation of one block has begun.
// Position is an index into the container's current children at handling
// time, not a stable global index.
type BlockStartPayload struct {
	BlockID   string `json:"blockId"`
	BlockType string `json:"blockType"`
	Position  int    `json:"position"`
}

// BlockContentPayload carries block markup.
// Partial=true appends a fragment; otherwise HTML replaces the block.
type BlockContentPayload struct {
	BlockID string `json:"blockId"`
	HTML    string `json:"html"`
	Partial bool   `json:"partial"`
}

// BlockCompletePayload marks a block as fully generated.
type BlockCompletePayload struct {
	BlockID string `json:"blockId"`
}

// ImagePlaceholderPayload registers an image still being generated.
type ImagePlaceholderPayload struct {
	ImageID string `json:"imageId"`
	BlockID string `json:"blockId"`
}

// ImageReadyPayload carries the final URL of a generated image.
type ImageReadyPayload struct {
	ImageID string `json:"imageId"`
	URL     string `json:"url"`
}

// GenerationCompletePayload is the successful terminal event.
// PageURL, when present, is the canonical URL of the finished page.
type GenerationCompletePayload struct {
	PageURL string `json:"pageUrl,omitempty"`
}

// ErrorPayload is the semantic error payload. An `error` event with no
// payload at all denotes a transport-level drop and never reaches decoding;
// the connector handles it before DecodeEvent is called.
type ErrorPayload struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// DecodeEvent parses a named SSE event and its JSON data into a typed Event.
// Unknown event names are an error: the event set is a closed contract.
func DecodeEvent(name string, data []byte) (*Event, error) {
	ev := &Event{Type: EventType(name)}

	var payload any
	switch ev.Type {
	case EventTypeLayout:
		ev.Layout = &LayoutPayload{}
		payload = ev.Layout
	case EventTypeBlockStart:
		ev.BlockStart = &BlockStartPayload{}
		payload = ev.BlockStart
	case EventTypeBlockContent:
		ev.BlockContent = &BlockContentPayload{}
		payload = ev.BlockContent
	case EventTypeBlockComplete:
		ev.BlockComplete = &BlockCompletePayload{}
		payload = ev.BlockComplete
	case EventTypeImagePlaceholder:
		ev.ImagePlaceholder = &ImagePlaceholderPayload{}
		payload = ev.ImagePlaceholder
	case EventTypeImageReady:
		ev.ImageReady = &ImageReadyPayload{}
		payload = ev.ImageReady
	case EventTypeGenerationComplete:
		ev.GenerationComplete = &GenerationCompletePayload{}
		payload = ev.GenerationComplete
	case EventTypeError:
		ev.Error = &ErrorPayload{}
		payload = ev.Error
	default:
		return nil, fmt.Errorf("unknown event type: %q", name)
	}

	if err := json.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", name, err)
	}

	return ev, nil
}
