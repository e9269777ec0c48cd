// Package skeleton produces placeholder markup shown while a block's real
// content is in flight. Purely deterministic: a fixed template per known
// block type, no I/O.
package skeleton

import (
	"golang.org/x/net/html"

	"github.com/pagecraft-io/pagestream/dom"
	"github.com/pagecraft-io/pagestream/types"
)

// FallbackType is used for any block type without a dedicated template.
const FallbackType = "text"

// builders maps known block types to their template constructors.
var builders = map[string]func() *html.Node{
	"hero":    buildHero,
	"cards":   buildCards,
	"columns": buildColumns,
	"text":    buildText,
	"cta":     buildCTA,
	"faq":     buildFAQ,
}

// KnownTypes returns the block types with a dedicated skeleton template.
func KnownTypes() []string {
	return []string{"hero", "cards", "columns", "text", "cta", "faq"}
}

// Build returns a skeleton root for the given block type.
// Unrecognized types fall back to the generic text template. The root
// carries the type class, the block and generating markers, and a
// pending status tag; the caller assigns the block id.
func Build(blockType string) *html.Node {
	build, ok := builders[blockType]
	if !ok {
		build = builders[FallbackType]
	}

	root := build()
	dom.AddClass(root, blockType)
	dom.AddClass(root, "block")
	dom.AddClass(root, dom.GeneratingClass)
	dom.AddClass(root, "skeleton")
	dom.SetAttr(root, dom.AttrStatus, string(types.BlockPending))
	return root
}

func shimmer(class string) *html.Node {
	n := dom.NewElement("div")
	dom.SetAttr(n, "class", "skeleton-shimmer "+class)
	return n
}

func buildHero() *html.Node {
	root := dom.NewElement("div")
	root.AppendChild(shimmer("skeleton-hero-image"))
	root.AppendChild(shimmer("skeleton-title"))
	root.AppendChild(shimmer("skeleton-line"))
	return root
}

func buildCards() *html.Node {
	root := dom.NewElement("div")
	row := dom.NewElement("div")
	dom.SetAttr(row, "class", "skeleton-card-row")
	for i := 0; i < 3; i++ {
		card := dom.NewElement("div")
		dom.SetAttr(card, "class", "skeleton-card")
		card.AppendChild(shimmer("skeleton-card-image"))
		card.AppendChild(shimmer("skeleton-line"))
		card.AppendChild(shimmer("skeleton-line short"))
		row.AppendChild(card)
	}
	root.AppendChild(row)
	return root
}

func buildColumns() *html.Node {
	root := dom.NewElement("div")
	for i := 0; i < 2; i++ {
		col := dom.NewElement("div")
		dom.SetAttr(col, "class", "skeleton-column")
		col.AppendChild(shimmer("skeleton-line"))
		col.AppendChild(shimmer("skeleton-line"))
		col.AppendChild(shimmer("skeleton-line short"))
		root.AppendChild(col)
	}
	return root
}

func buildText() *html.Node {
	root := dom.NewElement("div")
	root.AppendChild(shimmer("skeleton-line"))
	root.AppendChild(shimmer("skeleton-line"))
	root.AppendChild(shimmer("skeleton-line short"))
	return root
}

func buildCTA() *html.Node {
	root := dom.NewElement("div")
	root.AppendChild(shimmer("skeleton-button"))
	return root
}

func buildFAQ() *html.Node {
	root := dom.NewElement("div")
	for i := 0; i < 3; i++ {
		row := dom.NewElement("div")
		dom.SetAttr(row, "class", "skeleton-faq-row")
		row.AppendChild(shimmer("skeleton-line"))
		root.AppendChild(row)
	}
	return root
}
