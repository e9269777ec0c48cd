package render

import (
	"context"
	"fmt"

	"github.com/pagecraft-io/pagestream/dom"
	"github.com/pagecraft-io/pagestream/skeleton"
	"github.com/pagecraft-io/pagestream/types"
)

// handle applies one decoded event to session state and the page DOM.
// done is true after the successful terminal event; fatal carries the
// semantic error that ends the session when an error event is not
// recoverable.
func (r *Renderer) handle(ctx context.Context, ev *types.Event) (done bool, fatal error) {
	switch ev.Type {
	case types.EventTypeLayout:
		r.handleLayout(ev.Layout)
	case types.EventTypeBlockStart:
		r.handleBlockStart(ev.BlockStart)
	case types.EventTypeBlockContent:
		r.handleBlockContent(ctx, ev.BlockContent)
	case types.EventTypeBlockComplete:
		r.handleBlockComplete(ev.BlockComplete)
	case types.EventTypeImagePlaceholder:
		r.handleImagePlaceholder(ev.ImagePlaceholder)
	case types.EventTypeImageReady:
		r.handleImageReady(ev.ImageReady)
	case types.EventTypeGenerationComplete:
		r.handleGenerationComplete(ev.GenerationComplete)
		return true, nil
	case types.EventTypeError:
		return false, r.handleError(ev.Error)
	}
	return false, nil
}

// handleLayout rebuilds the page scaffold: one skeleton per announced
// block, in order, with ids assigned by position. The server restarts
// the event sequence on reconnect, so a repeat layout rebuilds the DOM
// while registered block state (and its statuses) carries over.
func (r *Renderer) handleLayout(p *types.LayoutPayload) {
	r.page.Clear()
	for i, blockType := range p.Blocks {
		blockID := fmt.Sprintf("block-%d", i)
		info := r.state.RegisterBlock(blockID, blockType)

		node := skeleton.Build(blockType)
		dom.SetAttr(node, dom.AttrBlockID, blockID)
		dom.SetAttr(node, dom.AttrStatus, string(info.Status))
		r.page.AppendBlock(node)
	}
	r.state.Status = types.SessionGenerating

	r.logger.Info("layout received", map[string]any{
		"blocks": len(p.Blocks),
	})
}

// handleBlockStart marks the block as loading, creating its skeleton at
// the announced position when the layout never mentioned it.
func (r *Renderer) handleBlockStart(p *types.BlockStartPayload) {
	r.state.RegisterBlock(p.BlockID, p.BlockType)

	if r.page.FindBlock(p.BlockID) == nil {
		node := skeleton.Build(p.BlockType)
		dom.SetAttr(node, dom.AttrBlockID, p.BlockID)
		r.page.InsertBlockAt(node, p.Position)
	}

	r.state.SetBlockStatus(p.BlockID, types.BlockLoading)
	r.page.SetBlockStatus(p.BlockID, types.BlockLoading)
}

// handleBlockContent applies markup to a block. Partial content appends
// a fragment; full content replaces the block and runs decoration.
// A block the server never announced is created lazily.
func (r *Renderer) handleBlockContent(ctx context.Context, p *types.BlockContentPayload) {
	info := r.state.RegisterBlock(p.BlockID, "")

	if r.page.FindBlock(p.BlockID) == nil {
		node := skeleton.Build(info.Type)
		dom.SetAttr(node, dom.AttrBlockID, p.BlockID)
		r.page.AppendBlock(node)
	}

	if p.Partial {
		if err := r.page.AppendBlockFragment(p.BlockID, p.HTML); err != nil {
			r.logger.Error("partial content failed", map[string]any{
				"block_id": p.BlockID,
				"error":    err.Error(),
			})
			return
		}
		r.state.SetBlockStatus(p.BlockID, types.BlockPartial)
		r.page.SetBlockStatus(p.BlockID, types.BlockPartial)
		return
	}

	root, err := r.page.ReplaceBlockContent(p.BlockID, info.Type, p.HTML)
	if err != nil {
		r.logger.Error("block content failed", map[string]any{
			"block_id": p.BlockID,
			"error":    err.Error(),
		})
		return
	}

	r.state.SetBlockStatus(p.BlockID, types.BlockReady)
	r.page.SetBlockStatus(p.BlockID, types.BlockReady)

	if err := r.decorator.Decorate(root, info.Type); err != nil {
		r.collector.IncDecorationFailure()
		r.logger.Warn("block decoration failed", map[string]any{
			"block_id":   p.BlockID,
			"block_type": info.Type,
			"error":      err.Error(),
		})
		return
	}
	if err := r.decorator.Load(ctx, root, info.Type); err != nil {
		r.collector.IncDecorationFailure()
		r.logger.Warn("block load hook failed", map[string]any{
			"block_id":   p.BlockID,
			"block_type": info.Type,
			"error":      err.Error(),
		})
	}
}

// handleBlockComplete finalizes one block. Repeat completions are a no-op
// so replayed events after a reconnect cause no duplicate side effects.
func (r *Renderer) handleBlockComplete(p *types.BlockCompletePayload) {
	if info, ok := r.state.Block(p.BlockID); ok && info.Status == types.BlockComplete {
		return
	}

	r.state.SetBlockStatus(p.BlockID, types.BlockComplete)
	r.page.SetBlockStatus(p.BlockID, types.BlockComplete)
	r.page.RemoveGeneratingMarker(p.BlockID)
	r.collector.IncBlockCompleted()
}

// handleImagePlaceholder registers an in-flight image.
func (r *Renderer) handleImagePlaceholder(p *types.ImagePlaceholderPayload) {
	r.state.RegisterImage(p.ImageID, p.BlockID)
}

// handleImageReady records the final URL and swaps the placeholder in the
// DOM. A placeholder the page never rendered is tracked but not swapped.
func (r *Renderer) handleImageReady(p *types.ImageReadyPayload) {
	r.state.SetImageReady(p.ImageID, p.URL)

	if r.page.SwapImage(p.ImageID, p.URL, r.clock().UnixMilli()) {
		r.collector.IncImageSwapped()
		return
	}
	r.logger.Debug("image ready with no placeholder in page", map[string]any{
		"image_id": p.ImageID,
	})
}

// handleGenerationComplete records the canonical URL; the run loop
// finalizes the session.
func (r *Renderer) handleGenerationComplete(p *types.GenerationCompletePayload) {
	if p.PageURL != "" {
		r.pageURL = p.PageURL
	}
}

// handleError applies an error event. Recoverable errors are logged and
// counted with no state change; non-recoverable errors end the session
// with the error panel in place.
func (r *Renderer) handleError(p *types.ErrorPayload) error {
	if p.Recoverable {
		r.collector.IncRecoverableError()
		r.logger.Warn("recoverable generation error", map[string]any{
			"code":    p.Code,
			"message": p.Message,
		})
		return nil
	}

	r.state.Status = types.SessionError
	r.page.AppendErrorPanel(p.Message, r.homeURL)
	return &StreamError{
		Kind: KindSemantic,
		Err:  fmt.Errorf("%s: %s", p.Code, p.Message),
	}
}
