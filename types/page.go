package types

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DiscoverPrefix is the URL path prefix under which generated pages live.
const DiscoverPrefix = "/discover/"

// PageMeta is the identity of one page-generation session.
type PageMeta struct {
	// PageID is the stable identifier derived from the slug.
	// Used as the persistence key.
	PageID string
	// Slug is the URL path segment identifying the page.
	Slug string
	// Query is the generation query. Defaults to the slug with hyphens
	// turned to spaces when the caller provides none.
	Query string
	// SessionID uniquely identifies this client session (diagnostics only).
	SessionID string
}

// Validate checks required identity fields.
func (m *PageMeta) Validate() error {
	if m == nil {
		return errors.New("page metadata is required")
	}
	if m.Slug == "" {
		return errors.New("slug is required")
	}
	if m.PageID == "" {
		return errors.New("page_id is required")
	}
	return nil
}

// NewPageMeta builds page identity from a slug or page path.
// An empty query defaults to the slug with hyphens turned to spaces.
func NewPageMeta(slugOrPath, query, sessionID string) *PageMeta {
	slug := SlugFromPath(slugOrPath)
	if query == "" {
		query = DefaultQuery(slug)
	}
	return &PageMeta{
		PageID:    slug,
		Slug:      slug,
		Query:     query,
		SessionID: sessionID,
	}
}

// SlugFromPath derives the slug from a page path by stripping the
// /discover/ prefix and any leading slash. A bare slug passes through.
func SlugFromPath(path string) string {
	path = strings.TrimPrefix(path, DiscoverPrefix)
	path = strings.TrimPrefix(path, "/")
	return strings.TrimSuffix(path, "/")
}

// DefaultQuery is the query used when the caller supplies none:
// the slug with hyphens turned to spaces.
func DefaultQuery(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}

// PageURL is the canonical path of the generated page.
func (m *PageMeta) PageURL() string {
	return DiscoverPrefix + m.Slug
}

// StreamURL constructs the generation stream URL against the given endpoint:
// GET <endpoint>/api/stream?slug=<slug>&query=<encoded query>.
func (m *PageMeta) StreamURL(endpoint string) (string, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	stream := *base
	stream.Path = strings.TrimSuffix(stream.Path, "/") + "/api/stream"

	q := url.Values{}
	q.Set("slug", m.Slug)
	q.Set("query", m.Query)
	stream.RawQuery = q.Encode()

	return stream.String(), nil
}
