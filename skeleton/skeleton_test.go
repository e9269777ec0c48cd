package skeleton_test

import (
	"bytes"
	"testing"

	"golang.org/x/net/html"

	"github.com/pagecraft-io/pagestream/dom"
	"github.com/pagecraft-io/pagestream/skeleton"
	"github.com/pagecraft-io/pagestream/types"
)

func renderNode(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestBuild_KnownTypes(t *testing.T) {
	for _, bt := range skeleton.KnownTypes() {
		t.Run(bt, func(t *testing.T) {
			root := skeleton.Build(bt)

			if !dom.HasClass(root, bt) {
				t.Errorf("root must carry the %s class", bt)
			}
			if !dom.HasClass(root, "block") {
				t.Error("root must carry the block marker")
			}
			if !dom.HasClass(root, dom.GeneratingClass) {
				t.Error("root must carry the generating marker")
			}
			if dom.GetAttr(root, dom.AttrStatus) != string(types.BlockPending) {
				t.Errorf("expected pending status, got %q", dom.GetAttr(root, dom.AttrStatus))
			}
		})
	}
}

func TestBuild_UnknownTypeFallsBack(t *testing.T) {
	root := skeleton.Build("countdown-timer")

	// Unknown types use the text template but keep their own class.
	if !dom.HasClass(root, "countdown-timer") {
		t.Error("root must carry the announced type class")
	}

	text := renderNode(t, skeleton.Build("text"))
	got := renderNode(t, root)
	if len(got) < len(text)/2 {
		t.Errorf("fallback skeleton looks empty: %s", got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := renderNode(t, skeleton.Build("cards"))
	b := renderNode(t, skeleton.Build("cards"))
	if a != b {
		t.Error("skeleton templates must be deterministic")
	}
}
