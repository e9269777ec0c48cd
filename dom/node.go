// Package dom maintains the server-side DOM of a progressively generated
// page. It wraps golang.org/x/net/html nodes with the small set of
// operations the stream renderer needs: positional skeleton insertion,
// block lookup and status tagging, markup replacement, and image swaps.
//
// DOM attribute contract:
//   - every managed block carries data-gen-block-id and data-gen-status
//   - images pending generation carry data-gen-image="<imageId>"
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Managed attribute names.
const (
	AttrBlockID = "data-gen-block-id"
	AttrStatus  = "data-gen-status"
	AttrImage   = "data-gen-image"
)

// GeneratingClass marks a block whose content is still in flight.
const GeneratingClass = "generating"

// GetAttr returns the value of the named attribute, or "".
func GetAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the node's class list contains name.
func HasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(GetAttr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the node's class list if absent.
func AddClass(n *html.Node, name string) {
	if name == "" || HasClass(n, name) {
		return
	}
	classes := GetAttr(n, "class")
	if classes == "" {
		SetAttr(n, "class", name)
		return
	}
	SetAttr(n, "class", classes+" "+name)
}

// RemoveClass strips name from the node's class list.
func RemoveClass(n *html.Node, name string) {
	fields := strings.Fields(GetAttr(n, "class"))
	kept := fields[:0]
	for _, c := range fields {
		if c != name {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// NewElement creates a detached element node.
func NewElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText creates a detached text node. Rendering escapes it.
func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// findByAttr walks the subtree and returns the first element whose
// attribute name equals value.
func findByAttr(root *html.Node, name, value string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && GetAttr(n, name) == value {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// walkElements visits every element in the subtree.
func walkElements(root *html.Node, visit func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visit(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// detach removes n from its parent, keeping the node reusable.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
