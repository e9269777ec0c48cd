package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pagecraft-io/pagestream/types"
)

// Page is the mutable DOM of one progressively generated page.
// All mutation happens on the renderer goroutine; Page does no locking.
type Page struct {
	container *html.Node
}

// NewPage creates an empty page with a <main> container.
func NewPage() *Page {
	return &Page{container: NewElement("main")}
}

// Clear removes all children from the container.
func (p *Page) Clear() {
	for p.container.FirstChild != nil {
		p.container.RemoveChild(p.container.FirstChild)
	}
}

// ChildCount returns the number of element children in the container.
func (p *Page) ChildCount() int {
	count := 0
	for c := p.container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			count++
		}
	}
	return count
}

// InsertBlockAt places node at the given index among the container's
// element children. A position at or past the current child count appends.
// The position is an index into the children at call time, not a stable
// global index; the server is expected to emit block starts in ascending
// position order.
func (p *Page) InsertBlockAt(node *html.Node, position int) {
	detach(node)

	idx := 0
	for c := p.container.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if idx == position {
			p.container.InsertBefore(node, c)
			return
		}
		idx++
	}
	p.container.AppendChild(node)
}

// AppendBlock appends node to the container.
func (p *Page) AppendBlock(node *html.Node) {
	detach(node)
	p.container.AppendChild(node)
}

// FindBlock returns the element tagged with the given block id, or nil.
func (p *Page) FindBlock(blockID string) *html.Node {
	return findByAttr(p.container, AttrBlockID, blockID)
}

// FindImage returns the <img> tagged with the given image id, or nil.
func (p *Page) FindImage(imageID string) *html.Node {
	return findByAttr(p.container, AttrImage, imageID)
}

// SetBlockStatus updates the block's data-gen-status attribute.
// Missing blocks are a no-op; callers create blocks lazily beforehand.
func (p *Page) SetBlockStatus(blockID string, status types.BlockStatus) {
	if block := p.FindBlock(blockID); block != nil {
		SetAttr(block, AttrStatus, string(status))
	}
}

// ReplaceBlockContent swaps the block's entire markup for the given HTML.
// The new root keeps the block's id and status tags and is guaranteed to
// carry its semantic type class plus the generic "block" marker.
// Returns the new root so the caller can run decoration over it.
func (p *Page) ReplaceBlockContent(blockID, blockType, markup string) (*html.Node, error) {
	old := p.FindBlock(blockID)
	if old == nil {
		return nil, fmt.Errorf("block %q not in page", blockID)
	}

	root, err := parseFragmentRoot(markup)
	if err != nil {
		return nil, fmt.Errorf("parse block markup: %w", err)
	}

	if blockType != "" {
		AddClass(root, blockType)
	}
	AddClass(root, "block")
	SetAttr(root, AttrBlockID, blockID)
	SetAttr(root, AttrStatus, GetAttr(old, AttrStatus))
	if HasClass(old, GeneratingClass) {
		AddClass(root, GeneratingClass)
	}

	p.container.InsertBefore(root, old)
	p.container.RemoveChild(old)
	return root, nil
}

// AppendBlockFragment appends parsed fragment nodes to the block's
// content region (the block element itself).
func (p *Page) AppendBlockFragment(blockID, markup string) error {
	block := p.FindBlock(blockID)
	if block == nil {
		return fmt.Errorf("block %q not in page", blockID)
	}

	nodes, err := parseFragment(markup)
	if err != nil {
		return fmt.Errorf("parse block fragment: %w", err)
	}
	for _, n := range nodes {
		detach(n)
		block.AppendChild(n)
	}
	return nil
}

// RemoveGeneratingMarker strips the generating class from one block.
func (p *Page) RemoveGeneratingMarker(blockID string) {
	if block := p.FindBlock(blockID); block != nil {
		RemoveClass(block, GeneratingClass)
	}
}

// ClearGeneratingMarkers strips the generating class everywhere.
func (p *Page) ClearGeneratingMarkers() {
	walkElements(p.container, func(n *html.Node) {
		RemoveClass(n, GeneratingClass)
	})
}

// SwapImage replaces the placeholder tagged with imageID by a freshly
// constructed <img> whose source carries a cache-defeating _t suffix.
// Replacing the node (rather than mutating src in place) defeats
// persistent in-memory image caches that ignore query-string busting on
// the original element. Returns false when no placeholder is in the page.
func (p *Page) SwapImage(imageID, url string, nowMillis int64) bool {
	old := p.FindImage(imageID)
	if old == nil {
		return false
	}

	img := NewElement("img")
	SetAttr(img, "src", CacheBustURL(url, nowMillis))
	SetAttr(img, AttrImage, imageID)
	if alt := GetAttr(old, "alt"); alt != "" {
		SetAttr(img, "alt", alt)
	}
	if class := GetAttr(old, "class"); class != "" {
		SetAttr(img, "class", class)
	}

	old.Parent.InsertBefore(img, old)
	old.Parent.RemoveChild(old)
	return true
}

// AppendErrorPanel renders the terminal error panel into the container:
// the message text plus a link back to the home page.
func (p *Page) AppendErrorPanel(message, homeURL string) {
	panel := NewElement("div")
	SetAttr(panel, "class", "error-panel block")

	heading := NewElement("h2")
	heading.AppendChild(NewText("Page generation failed"))
	panel.AppendChild(heading)

	msg := NewElement("p")
	msg.AppendChild(NewText(message))
	panel.AppendChild(msg)

	if homeURL != "" {
		back := NewElement("p")
		link := NewElement("a")
		SetAttr(link, "href", homeURL)
		link.AppendChild(NewText("Back to home"))
		back.AppendChild(link)
		panel.AppendChild(back)
	}

	p.container.AppendChild(panel)
}

// Render serializes the container to HTML.
func (p *Page) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, p.container); err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}

// CacheBustURL appends a _t timestamp parameter to url.
func CacheBustURL(url string, nowMillis int64) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_t=%d", url, sep, nowMillis)
}

// parseFragment parses markup in a <div> context and returns the nodes.
func parseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}

// parseFragmentRoot parses markup and returns a single root element.
// A fragment with one element root is returned as-is; anything else
// (multiple roots, leading text) is wrapped in a <div>.
func parseFragmentRoot(markup string) (*html.Node, error) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return nil, err
	}

	var elements []*html.Node
	onlyWhitespaceText := true
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			elements = append(elements, n)
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				onlyWhitespaceText = false
			}
		}
	}

	if len(elements) == 1 && onlyWhitespaceText {
		root := elements[0]
		detach(root)
		return root, nil
	}

	wrapper := NewElement("div")
	for _, n := range nodes {
		detach(n)
		wrapper.AppendChild(n)
	}
	return wrapper, nil
}
