package render

import (
	"context"

	"golang.org/x/net/html"
)

// BlockDecorator post-processes a block after its full markup lands.
// Decorate runs synchronously on the fresh root (buttons, icons,
// block-specific wiring); Load runs any follow-up work that may block
// (asset warming, embedded widget setup).
//
// Decorator failures are logged and counted but never fail the session:
// an undecorated block is still a rendered block.
type BlockDecorator interface {
	Decorate(root *html.Node, blockType string) error
	Load(ctx context.Context, root *html.Node, blockType string) error
}

// NopDecorator performs no decoration. Used when no decorator is configured.
type NopDecorator struct{}

// Decorate implements BlockDecorator.
func (NopDecorator) Decorate(*html.Node, string) error { return nil }

// Load implements BlockDecorator.
func (NopDecorator) Load(context.Context, *html.Node, string) error { return nil }

// Verify NopDecorator implements BlockDecorator.
var _ BlockDecorator = NopDecorator{}

// RecordingDecorator records decoration calls for testing.
type RecordingDecorator struct {
	Decorated   []string
	Loaded      []string
	DecorateErr error
	LoadErr     error
}

// NewRecordingDecorator creates a new recording decorator.
func NewRecordingDecorator() *RecordingDecorator {
	return &RecordingDecorator{}
}

// Decorate implements BlockDecorator by recording the block type.
func (d *RecordingDecorator) Decorate(_ *html.Node, blockType string) error {
	if d.DecorateErr != nil {
		return d.DecorateErr
	}
	d.Decorated = append(d.Decorated, blockType)
	return nil
}

// Load implements BlockDecorator by recording the block type.
func (d *RecordingDecorator) Load(_ context.Context, _ *html.Node, blockType string) error {
	if d.LoadErr != nil {
		return d.LoadErr
	}
	d.Loaded = append(d.Loaded, blockType)
	return nil
}

// Verify RecordingDecorator implements BlockDecorator.
var _ BlockDecorator = (*RecordingDecorator)(nil)
