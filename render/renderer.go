// Package render drives one page-generation session: it opens the event
// stream, applies each event to the server-side DOM and session state,
// survives transport drops within a bounded reconnect budget, and on
// completion publishes the final page and broadcasts a notification.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pagecraft-io/pagestream/dom"
	"github.com/pagecraft-io/pagestream/log"
	"github.com/pagecraft-io/pagestream/metrics"
	"github.com/pagecraft-io/pagestream/notify"
	"github.com/pagecraft-io/pagestream/publish"
	"github.com/pagecraft-io/pagestream/session"
	"github.com/pagecraft-io/pagestream/skeleton"
	"github.com/pagecraft-io/pagestream/sse"
	"github.com/pagecraft-io/pagestream/types"
)

// ReconnectBaseDelay is the backoff unit between reconnect attempts.
// Attempt n waits n times this delay.
const ReconnectBaseDelay = time.Second

// DefaultHomeURL is the error panel's back link when none is configured.
const DefaultHomeURL = "/"

// EventStream is one live connection delivering wire events.
type EventStream interface {
	// Next returns the next event. io.EOF means the server closed the
	// stream; any error ends this connection.
	Next() (*sse.Event, error)

	// Close tears down the connection.
	Close() error
}

// StreamOpener dials a new event stream. The renderer calls it once per
// connection attempt (initial connect and each reconnect).
type StreamOpener func(ctx context.Context) (EventStream, error)

// Config assembles a renderer's collaborators. Meta and Endpoint are
// required unless OpenStream is provided; everything else is optional.
type Config struct {
	// Meta is the page identity (required).
	Meta *types.PageMeta
	// Endpoint is the generation backend base URL.
	Endpoint string
	// HomeURL is the error panel's back link (default "/").
	HomeURL string
	// Resume restores a fresh persisted snapshot before connecting.
	Resume bool

	// Store persists session snapshots. Nil disables persistence.
	Store session.Store
	// Decorator post-processes completed blocks. Nil means no decoration.
	Decorator BlockDecorator
	// Publisher writes the final page on completion. Nil disables publishing.
	Publisher publish.Publisher
	// Notifier broadcasts the completion event. Nil disables notification.
	Notifier notify.Notifier
	// Collector accumulates session metrics. Nil-safe.
	Collector *metrics.Collector
	// Logger defaults to a page-scoped logger on stderr.
	Logger *log.Logger

	// HTTPClient overrides the stream HTTP client.
	HTTPClient *http.Client
	// OpenStream overrides stream dialing entirely (tests, fakes).
	OpenStream StreamOpener
	// Clock overrides time.Now.
	Clock func() time.Time
	// Sleep overrides the backoff wait. Must honor context cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
	// Progress, when set, observes session progress after every event.
	Progress func(ProgressUpdate)
}

// Renderer runs one generation session. Not reusable: construct a new
// Renderer per session.
type Renderer struct {
	config    Config
	logger    *log.Logger
	collector *metrics.Collector
	decorator BlockDecorator
	open      StreamOpener
	clock     func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	homeURL   string

	state   *session.State
	page    *dom.Page
	pageURL string
}

// NewRenderer validates the config and fills in defaults.
func NewRenderer(cfg Config) (*Renderer, error) {
	if err := cfg.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("renderer config: %w", err)
	}
	if cfg.OpenStream == nil && cfg.Endpoint == "" {
		return nil, errors.New("renderer config: endpoint is required")
	}

	r := &Renderer{
		config:    cfg,
		logger:    cfg.Logger,
		collector: cfg.Collector,
		decorator: cfg.Decorator,
		open:      cfg.OpenStream,
		clock:     cfg.Clock,
		sleep:     cfg.Sleep,
		homeURL:   cfg.HomeURL,
	}
	if r.logger == nil {
		r.logger = log.NewLogger(cfg.Meta)
	}
	if r.decorator == nil {
		r.decorator = NopDecorator{}
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.sleep == nil {
		r.sleep = sleepCtx
	}
	if r.homeURL == "" {
		r.homeURL = DefaultHomeURL
	}
	if r.open == nil {
		streamURL, err := cfg.Meta.StreamURL(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("renderer config: %w", err)
		}
		client := sse.NewClient(cfg.HTTPClient)
		r.open = func(ctx context.Context) (EventStream, error) {
			return client.Open(ctx, streamURL)
		}
	}
	return r, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run drives the session to a terminal state and returns its Result.
//
// An error return means the session never ran: invalid setup, or
// ErrAlreadyComplete when a resumed snapshot shows the page is already
// done. Every other disposition, failures included, is reported through
// the Result's Outcome.
func (r *Renderer) Run(ctx context.Context) (*Result, error) {
	start := r.clock()

	if err := r.restoreOrInit(ctx, start); err != nil {
		return nil, err
	}

	for {
		stream, err := r.open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return r.finishCanceled(ctx, start), nil
			}
			r.logger.Warn("stream connect failed", map[string]any{
				"error":   err.Error(),
				"attempt": r.state.ReconnectAttempts,
			})
			if !r.backoff(ctx) {
				if ctx.Err() != nil {
					return r.finishCanceled(ctx, start), nil
				}
				return r.finishTransportFailure(ctx, start, err), nil
			}
			continue
		}

		r.logger.Info("stream connected", map[string]any{
			"attempt": r.state.ReconnectAttempts,
		})

		outcome := r.consume(ctx, stream)
		_ = stream.Close()

		switch {
		case outcome == nil:
			return r.finishComplete(ctx, start), nil
		case IsCanceled(outcome):
			return r.finishCanceled(ctx, start), nil
		case IsSemantic(outcome):
			return r.finishGenerationError(ctx, start, outcome), nil
		default: // transport drop
			r.logger.Warn("stream dropped", map[string]any{
				"error": outcome.Error(),
			})
			if !r.backoff(ctx) {
				if ctx.Err() != nil {
					return r.finishCanceled(ctx, start), nil
				}
				return r.finishTransportFailure(ctx, start, outcome), nil
			}
		}
	}
}

// restoreOrInit prepares session state and the empty page, restoring a
// fresh snapshot when resuming. A load failure is treated as a miss.
func (r *Renderer) restoreOrInit(ctx context.Context, start time.Time) error {
	r.page = dom.NewPage()

	if r.config.Resume && r.config.Store != nil {
		snap, err := r.config.Store.Load(ctx, r.config.Meta.PageID)
		if err != nil {
			r.logger.Warn("snapshot load failed, starting fresh", map[string]any{
				"error": err.Error(),
			})
		}
		if snap != nil {
			if snap.Status == types.SessionComplete {
				return ErrAlreadyComplete
			}
			r.state = session.RestoreState(snap, start)
			r.state.Status = types.SessionGenerating
			r.rebuildSkeletons()
			r.logger.Info("session restored from snapshot", map[string]any{
				"blocks": r.state.BlockCount(),
			})
			return nil
		}
	}

	r.state = session.NewState(r.config.Meta.PageID, start)
	return nil
}

// rebuildSkeletons reconstructs placeholder DOM for restored blocks.
// Content re-arrives on the new stream; only structure is rebuilt here.
func (r *Renderer) rebuildSkeletons() {
	for _, entry := range r.state.Blocks() {
		node := skeleton.Build(entry.Info.Type)
		dom.SetAttr(node, dom.AttrBlockID, entry.ID)
		dom.SetAttr(node, dom.AttrStatus, string(entry.Info.Status))
		r.page.AppendBlock(node)
	}
}

// consume reads the stream until the session ends or the connection dies.
// Returns nil on generation-complete, a semantic StreamError on a fatal
// error event, a canceled StreamError on context cancellation, and a
// transport StreamError on any connection failure.
func (r *Renderer) consume(ctx context.Context, stream EventStream) error {
	for {
		ev, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil {
				return &StreamError{Kind: KindCanceled, Err: ctx.Err()}
			}
			if errors.Is(err, io.EOF) {
				err = errors.New("server closed the stream before completion")
			}
			return &StreamError{Kind: KindTransport, Err: err}
		}

		// An error event with no payload is the server signalling a
		// transport-level drop, not a semantic failure.
		if ev.Name == string(types.EventTypeError) && ev.Data == nil {
			return &StreamError{Kind: KindTransport, Err: errors.New("server signalled stream error")}
		}

		decoded, err := types.DecodeEvent(ev.Name, ev.Data)
		if err != nil {
			r.collector.IncDecodeError()
			r.logger.Error("event decode failed", map[string]any{
				"event": ev.Name,
				"error": err.Error(),
			})
			continue
		}
		r.collector.IncEvent(string(decoded.Type))

		done, fatal := r.handle(ctx, decoded)
		r.emitProgress("")
		if fatal != nil {
			return fatal
		}
		if done {
			return nil
		}
	}
}

// backoff consumes one reconnect attempt and waits its linear delay.
// Returns false when the budget is exhausted or the wait was canceled.
func (r *Renderer) backoff(ctx context.Context) bool {
	if !r.state.CanReconnect() {
		r.logger.Error("reconnect budget exhausted", map[string]any{
			"attempts": r.state.ReconnectAttempts,
		})
		return false
	}
	attempt := r.state.IncReconnect()
	r.collector.IncReconnect()
	delay := time.Duration(attempt) * ReconnectBaseDelay

	r.logger.Info("reconnecting", map[string]any{
		"attempt":  attempt,
		"delay_ms": delay.Milliseconds(),
	})
	r.emitProgress(fmt.Sprintf("reconnecting (attempt %d)", attempt))

	return r.sleep(ctx, delay) == nil
}

// persist saves the current snapshot, swallowing failures.
// Persistence runs even when ctx is already canceled: the snapshot taken
// at interruption is exactly the one a resume needs.
func (r *Renderer) persist(ctx context.Context) {
	if r.config.Store == nil {
		return
	}
	snap := r.state.Snapshot(r.clock())
	if err := r.config.Store.Save(context.WithoutCancel(ctx), snap); err != nil {
		r.collector.IncPersistenceFailure()
		r.logger.Warn("snapshot save failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func (r *Renderer) finishComplete(ctx context.Context, start time.Time) *Result {
	r.state.Status = types.SessionComplete
	r.page.ClearGeneratingMarkers()
	r.persist(ctx)

	res := r.newResult(OutcomeComplete, "", start)

	if r.config.Publisher != nil {
		path, err := r.config.Publisher.Publish(context.WithoutCancel(ctx), r.state.PageID, []byte(res.HTML))
		if err != nil {
			res.PublishErr = err
			r.logger.Error("publish failed", map[string]any{
				"error": err.Error(),
			})
		} else {
			res.StoragePath = path
			r.logger.Info("page published", map[string]any{
				"storage_path": path,
			})
		}
	}

	if r.config.Notifier != nil {
		event := &notify.PageGeneratedEvent{
			EventType:   notify.EventTypePageGenerated,
			PageID:      r.state.PageID,
			Slug:        r.config.Meta.Slug,
			SessionID:   r.config.Meta.SessionID,
			PageURL:     res.PageURL,
			StoragePath: res.StoragePath,
			Blocks:      res.BlocksTotal,
			DurationMs:  res.Duration.Milliseconds(),
			Timestamp:   r.clock().UTC().Format(time.RFC3339),
		}
		if err := r.config.Notifier.Publish(context.WithoutCancel(ctx), event); err != nil {
			r.logger.Error("completion notification failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	r.logger.Info("generation complete", map[string]any{
		"blocks":      res.BlocksTotal,
		"duration_ms": res.Duration.Milliseconds(),
	})
	r.emitProgress("complete")
	return res
}

func (r *Renderer) finishGenerationError(ctx context.Context, start time.Time, cause error) *Result {
	// Status and error panel were applied by the error handler.
	r.persist(ctx)
	r.logger.Error("generation failed", map[string]any{
		"error": cause.Error(),
	})
	r.emitProgress("failed")
	return r.newResult(OutcomeGenerationError, cause.Error(), start)
}

func (r *Renderer) finishTransportFailure(ctx context.Context, start time.Time, cause error) *Result {
	r.state.Status = types.SessionError
	r.page.AppendErrorPanel("Connection to the generation service was lost.", r.homeURL)
	r.persist(ctx)
	r.logger.Error("session failed after transport errors", map[string]any{
		"error":    cause.Error(),
		"attempts": r.state.ReconnectAttempts,
	})
	r.emitProgress("connection lost")
	return r.newResult(OutcomeTransportFailure, cause.Error(), start)
}

func (r *Renderer) finishCanceled(ctx context.Context, start time.Time) *Result {
	// Only a mid-generation interruption is worth a snapshot; a session
	// that never produced state has nothing to resume.
	if r.state.Status == types.SessionGenerating {
		r.persist(ctx)
	}
	r.logger.Warn("session interrupted", map[string]any{
		"status": string(r.state.Status),
	})
	r.emitProgress("interrupted")
	return r.newResult(OutcomeCanceled, "session interrupted", start)
}

func (r *Renderer) newResult(outcome Outcome, message string, start time.Time) *Result {
	html, err := r.page.Render()
	if err != nil {
		r.logger.Error("page serialization failed", map[string]any{
			"error": err.Error(),
		})
	}

	pageURL := r.pageURL
	if pageURL == "" {
		pageURL = r.config.Meta.PageURL()
	}

	done := 0
	for _, entry := range r.state.Blocks() {
		if entry.Info.Status == types.BlockComplete {
			done++
		}
	}

	return &Result{
		PageID:      r.state.PageID,
		Outcome:     outcome,
		Message:     message,
		PageURL:     pageURL,
		HTML:        html,
		Duration:    r.clock().Sub(start),
		BlocksTotal: r.state.BlockCount(),
		BlocksDone:  done,
		Reconnects:  r.state.ReconnectAttempts,
		Metrics:     r.collector.Snapshot(),
	}
}

func (r *Renderer) emitProgress(message string) {
	if r.config.Progress == nil {
		return
	}

	update := ProgressUpdate{
		SessionStatus: r.state.Status,
		BlocksTotal:   r.state.BlockCount(),
		Reconnects:    r.state.ReconnectAttempts,
		Message:       message,
	}
	for _, entry := range r.state.Blocks() {
		if entry.Info.Status == types.BlockComplete {
			update.BlocksDone++
		}
	}
	for _, entry := range r.state.Images() {
		update.ImagesTotal++
		if entry.Info.Status == types.ImageReady {
			update.ImagesReady++
		}
	}
	r.config.Progress(update)
}
