package sse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pagecraft-io/pagestream/iox"
)

// DefaultDialTimeout bounds the initial response (headers, not the body —
// the body is open-ended by design).
const DefaultDialTimeout = 30 * time.Second

// Client opens event streams over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a stream client.
// A nil httpClient uses a default with a response-header timeout; the
// overall request deadline is left to the caller's context, since a
// healthy stream stays open indefinitely.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultDialTimeout,
			},
		}
	}
	return &Client{httpClient: httpClient}
}

// Stream is one live event-stream connection.
type Stream struct {
	body    io.ReadCloser
	decoder *Decoder
}

// Open performs the GET and verifies the response is an event stream.
// The returned Stream must be closed by the caller.
func (c *Client) Open(ctx context.Context, streamURL string) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		iox.DiscardClose(resp.Body)
		return nil, fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}

	return &Stream{
		body:    resp.Body,
		decoder: NewDecoder(resp.Body),
	}, nil
}

// Next returns the next event from the connection.
// io.EOF means the server closed the stream.
func (s *Stream) Next() (*Event, error) {
	return s.decoder.Next()
}

// Close tears down the connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
