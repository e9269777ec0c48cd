package render_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/pagecraft-io/pagestream/render"
	"github.com/pagecraft-io/pagestream/sse"
	"github.com/pagecraft-io/pagestream/types"
)

var errTest = errors.New("decoration exploded")

func TestRun_DecodeFailureSkipsEvent(t *testing.T) {
	events := []*sse.Event{
		ev(t, "layout", types.LayoutPayload{Blocks: []string{"hero"}}),
		{Name: "block-content", Data: []byte(`{"blockId": truncated`)},
		{Name: "mystery-event", Data: []byte(`{}`)},
		ev(t, "block-content", types.BlockContentPayload{BlockID: "block-0", HTML: `<section>ok</section>`}),
		ev(t, "block-complete", types.BlockCompletePayload{BlockID: "block-0"}),
		ev(t, "generation-complete", types.GenerationCompletePayload{}),
	}
	d := &dialer{queue: []func() (render.EventStream, error){dialStream(&scriptedStream{events: events})}}

	res := run(t, testConfig(t, d))

	if res.Outcome != render.OutcomeComplete {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Message)
	}
	if res.Metrics.DecodeErrors != 2 {
		t.Errorf("decode errors = %d, want 2", res.Metrics.DecodeErrors)
	}
	if !strings.Contains(res.HTML, "<section") {
		t.Errorf("valid content lost after skipped events:\n%s", res.HTML)
	}
}

func TestRun_PartialContentAppendsInOrder(t *testing.T) {
	events := []*sse.Event{
		ev(t, "layout", types.LayoutPayload{Blocks: []string{"text"}}),
		ev(t, "block-start", types.BlockStartPayload{BlockID: "block-0", BlockType: "text", Position: 0}),
		ev(t, "block-content", types.BlockContentPayload{BlockID: "block-0", HTML: `<p>first</p>`, Partial: true}),
		ev(t, "block-content", types.BlockContentPayload{BlockID: "block-0", HTML: `<p>second</p>`, Partial: true}),
		ev(t, "block-content", types.BlockContentPayload{BlockID: "block-0", HTML: `<article><p>first</p><p>second</p><p>third</p></article>`}),
		ev(t, "block-complete", types.BlockCompletePayload{BlockID: "block-0"}),
		ev(t, "generation-complete", types.GenerationCompletePayload{}),
	}
	d := &dialer{queue: []func() (render.EventStream, error){dialStream(&scriptedStream{events: events})}}

	var sawPartial bool
	cfg := testConfig(t, d)
	cfg.Progress = func(u render.ProgressUpdate) {
		if u.SessionStatus == types.SessionGenerating && u.BlocksDone == 0 {
			sawPartial = true
		}
	}

	res := run(t, cfg)

	if res.Outcome != render.OutcomeComplete {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Message)
	}
	if !sawPartial {
		t.Error("expected progress while streaming partials")
	}
	// Full content replaced the accumulated partials.
	if got := strings.Count(res.HTML, "<p>first</p>"); got != 1 {
		t.Errorf("first fragment appears %d times:\n%s", got, res.HTML)
	}
	if !strings.Contains(res.HTML, "<p>third</p>") {
		t.Errorf("final content missing:\n%s", res.HTML)
	}
}

func TestRun_BlockContentWithoutLayoutCreatesBlock(t *testing.T) {
	events := []*sse.Event{
		ev(t, "block-content", types.BlockContentPayload{BlockID: "orphan", HTML: `<section>standalone</section>`}),
		ev(t, "block-complete", types.BlockCompletePayload{BlockID: "orphan"}),
		ev(t, "generation-complete", types.GenerationCompletePayload{}),
	}
	d := &dialer{queue: []func() (render.EventStream, error){dialStream(&scriptedStream{events: events})}}

	res := run(t, testConfig(t, d))

	if res.Outcome != render.OutcomeComplete {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Message)
	}
	if !strings.Contains(res.HTML, "standalone") {
		t.Errorf("orphan block not rendered:\n%s", res.HTML)
	}
	if res.BlocksTotal != 1 || res.BlocksDone != 1 {
		t.Errorf("blocks = %d/%d", res.BlocksDone, res.BlocksTotal)
	}
}

func TestRun_BlockStartInsertsAtPosition(t *testing.T) {
	events := []*sse.Event{
		ev(t, "layout", types.LayoutPayload{Blocks: []string{"hero", "text"}}),
		ev(t, "block-start", types.BlockStartPayload{BlockID: "inserted", BlockType: "cta", Position: 1}),
		ev(t, "block-content", types.BlockContentPayload{BlockID: "block-0", HTML: `<section>top</section>`}),
		ev(t, "block-content", types.BlockContentPayload{BlockID: "inserted", HTML: `<section>middle</section>`}),
		ev(t, "block-content", types.BlockContentPayload{BlockID: "block-1", HTML: `<section>bottom</section>`}),
		ev(t, "generation-complete", types.GenerationCompletePayload{}),
	}
	d := &dialer{queue: []func() (render.EventStream, error){dialStream(&scriptedStream{events: events})}}

	res := run(t, testConfig(t, d))

	if res.Outcome != render.OutcomeComplete {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Message)
	}
	top := strings.Index(res.HTML, "top")
	middle := strings.Index(res.HTML, "middle")
	bottom := strings.Index(res.HTML, "bottom")
	if top == -1 || middle == -1 || bottom == -1 {
		t.Fatalf("blocks missing:\n%s", res.HTML)
	}
	if !(top < middle && middle < bottom) {
		t.Errorf("block order wrong (%d, %d, %d):\n%s", top, middle, bottom, res.HTML)
	}
}

func TestRun_DecorationFailureDoesNotFailSession(t *testing.T) {
	d := &dialer{queue: []func() (render.EventStream, error){
		dialStream(&scriptedStream{events: happyEvents(t)}),
	}}

	decorator := render.NewRecordingDecorator()
	decorator.DecorateErr = errTest
	cfg := testConfig(t, d)
	cfg.Decorator = decorator

	res := run(t, cfg)

	if res.Outcome != render.OutcomeComplete {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Message)
	}
	if res.Metrics.DecorationFailures != 2 {
		t.Errorf("decoration failures = %d, want 2", res.Metrics.DecorationFailures)
	}
}
