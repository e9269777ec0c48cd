package dom_test

import (
	"strings"
	"testing"

	"github.com/pagecraft-io/pagestream/dom"
	"github.com/pagecraft-io/pagestream/skeleton"
	"github.com/pagecraft-io/pagestream/types"
)

func TestPage_InsertBlockAt_Order(t *testing.T) {
	page := dom.NewPage()

	hero := skeleton.Build("hero")
	dom.SetAttr(hero, dom.AttrBlockID, "block-0")
	cards := skeleton.Build("cards")
	dom.SetAttr(cards, dom.AttrBlockID, "block-1")

	page.AppendBlock(hero)
	page.AppendBlock(cards)

	// Insert between the two existing blocks.
	faq := skeleton.Build("faq")
	dom.SetAttr(faq, dom.AttrBlockID, "block-2")
	page.InsertBlockAt(faq, 1)

	out, err := page.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	first := strings.Index(out, `data-gen-block-id="block-0"`)
	second := strings.Index(out, `data-gen-block-id="block-2"`)
	third := strings.Index(out, `data-gen-block-id="block-1"`)
	if first == -1 || second == -1 || third == -1 {
		t.Fatalf("missing block ids in output: %s", out)
	}
	if !(first < second && second < third) {
		t.Errorf("blocks out of order: %s", out)
	}
}

func TestPage_InsertBlockAt_PositionPastEnd(t *testing.T) {
	page := dom.NewPage()

	hero := skeleton.Build("hero")
	dom.SetAttr(hero, dom.AttrBlockID, "block-0")
	page.InsertBlockAt(hero, 5)

	if page.ChildCount() != 1 {
		t.Errorf("expected append when position exceeds child count, got %d children", page.ChildCount())
	}
}

func TestPage_ReplaceBlockContent(t *testing.T) {
	page := dom.NewPage()

	sk := skeleton.Build("hero")
	dom.SetAttr(sk, dom.AttrBlockID, "block-0")
	dom.SetAttr(sk, dom.AttrStatus, string(types.BlockLoading))
	page.AppendBlock(sk)

	root, err := page.ReplaceBlockContent("block-0", "hero", `<div><h1>Welcome</h1></div>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !dom.HasClass(root, "hero") {
		t.Error("new root must carry the semantic type class")
	}
	if !dom.HasClass(root, "block") {
		t.Error("new root must carry the generic block marker")
	}
	if dom.GetAttr(root, dom.AttrBlockID) != "block-0" {
		t.Error("new root must keep the block id tag")
	}

	out, err := page.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<h1>Welcome</h1>") {
		t.Errorf("expected replaced markup in output: %s", out)
	}
	if strings.Count(out, `data-gen-block-id="block-0"`) != 1 {
		t.Errorf("expected exactly one block-0 node after replacement: %s", out)
	}
}

func TestPage_ReplaceBlockContent_MultiRootWrapped(t *testing.T) {
	page := dom.NewPage()

	sk := skeleton.Build("text")
	dom.SetAttr(sk, dom.AttrBlockID, "block-0")
	page.AppendBlock(sk)

	root, err := page.ReplaceBlockContent("block-0", "text", `<p>one</p><p>two</p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Data != "div" {
		t.Errorf("multi-root markup must be wrapped in a div, got %s", root.Data)
	}
}

func TestPage_ReplaceBlockContent_MissingBlock(t *testing.T) {
	page := dom.NewPage()
	if _, err := page.ReplaceBlockContent("nope", "hero", "<div></div>"); err == nil {
		t.Fatal("expected error for unknown block")
	}
}

func TestPage_AppendBlockFragment(t *testing.T) {
	page := dom.NewPage()

	sk := skeleton.Build("text")
	dom.SetAttr(sk, dom.AttrBlockID, "block-0")
	page.AppendBlock(sk)

	if err := page.AppendBlockFragment("block-0", "<p>part one</p>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := page.AppendBlockFragment("block-0", "<p>part two</p>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := page.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	one := strings.Index(out, "part one")
	two := strings.Index(out, "part two")
	if one == -1 || two == -1 || one > two {
		t.Errorf("fragments must append in order: %s", out)
	}
}

func TestPage_SwapImage(t *testing.T) {
	page := dom.NewPage()

	block := dom.NewElement("div")
	dom.SetAttr(block, dom.AttrBlockID, "block-0")
	img := dom.NewElement("img")
	dom.SetAttr(img, dom.AttrImage, "img-1")
	dom.SetAttr(img, "alt", "a coffee maker")
	block.AppendChild(img)
	page.AppendBlock(block)

	if !page.SwapImage("img-1", "https://cdn/x.png", 1700000000000) {
		t.Fatal("expected swap to find the placeholder")
	}

	out, err := page.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `src="https://cdn/x.png?_t=1700000000000"`) {
		t.Errorf("expected cache-busted src: %s", out)
	}
	if !strings.Contains(out, `alt="a coffee maker"`) {
		t.Errorf("alt text must carry over: %s", out)
	}
}

func TestPage_SwapImage_NoPlaceholder(t *testing.T) {
	page := dom.NewPage()
	if page.SwapImage("img-1", "https://cdn/x.png", 1) {
		t.Error("expected false when no placeholder is present")
	}
}

func TestCacheBustURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn/x.png", "https://cdn/x.png?_t=99"},
		{"https://cdn/x.png?v=2", "https://cdn/x.png?v=2&_t=99"},
	}
	for _, tt := range tests {
		if got := dom.CacheBustURL(tt.url, 99); got != tt.want {
			t.Errorf("CacheBustURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestPage_ClearGeneratingMarkers(t *testing.T) {
	page := dom.NewPage()

	sk := skeleton.Build("hero")
	dom.SetAttr(sk, dom.AttrBlockID, "block-0")
	page.AppendBlock(sk)

	page.ClearGeneratingMarkers()

	out, err := page.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, dom.GeneratingClass) {
		t.Errorf("generating markers must be cleared: %s", out)
	}
}

func TestPage_AppendErrorPanel_EscapesMessage(t *testing.T) {
	page := dom.NewPage()
	page.AppendErrorPanel(`model <unavailable> & "down"`, "/")

	out, err := page.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "model &lt;unavailable&gt;") {
		t.Errorf("message must be escaped: %s", out)
	}
	if !strings.Contains(out, `href="/"`) {
		t.Errorf("expected home link: %s", out)
	}
}
