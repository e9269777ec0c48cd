// Package publish writes the final generated page HTML to storage once a
// session completes, so subsequent navigations are served statically.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Publisher persists a finished page.
// Implementations must be safe for single-use per session.
type Publisher interface {
	// Publish writes the page HTML and returns the storage path.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, pageID string, html []byte) (string, error)

	// Close releases publisher resources.
	Close() error
}

// PageFileName returns the storage file name for a page.
func PageFileName(pageID string) string {
	return pageID + ".html"
}

// FSPublisher writes pages to a local directory.
// Writes go through a temp file and rename so readers never observe a
// partially written page.
type FSPublisher struct {
	dir string
}

// NewFSPublisher creates a filesystem publisher rooted at dir.
// The directory is created if missing.
func NewFSPublisher(dir string) (*FSPublisher, error) {
	if dir == "" {
		return nil, fmt.Errorf("fs publisher requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fs publisher: create dir: %w", err)
	}
	return &FSPublisher{dir: dir}, nil
}

// Publish implements Publisher.
func (p *FSPublisher) Publish(ctx context.Context, pageID string, html []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("fs publish: %w", err)
	}
	if strings.ContainsAny(pageID, `/\`) || strings.Contains(pageID, "..") {
		return "", fmt.Errorf("fs publish: invalid page id %q", pageID)
	}

	final := filepath.Join(p.dir, PageFileName(pageID))

	tmp, err := os.CreateTemp(p.dir, "."+pageID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("fs publish: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(html); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("fs publish: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("fs publish: close: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("fs publish: rename: %w", err)
	}

	return "file://" + final, nil
}

// Close implements Publisher.
func (p *FSPublisher) Close() error { return nil }

// Verify FSPublisher implements Publisher.
var _ Publisher = (*FSPublisher)(nil)

// StubPublisher records publishes for testing.
type StubPublisher struct {
	Pages  []StubPage
	Err    error
	Closed bool
}

// StubPage is a recorded publish for testing.
type StubPage struct {
	PageID string
	HTML   []byte
}

// NewStubPublisher creates a new stub publisher.
func NewStubPublisher() *StubPublisher {
	return &StubPublisher{}
}

// Publish implements Publisher by recording the call.
func (p *StubPublisher) Publish(_ context.Context, pageID string, html []byte) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	p.Pages = append(p.Pages, StubPage{PageID: pageID, HTML: html})
	return "stub://" + PageFileName(pageID), nil
}

// Close implements Publisher.
func (p *StubPublisher) Close() error {
	p.Closed = true
	return nil
}

// Verify StubPublisher implements Publisher.
var _ Publisher = (*StubPublisher)(nil)
