package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pagecraft-io/pagestream/iox"
	"github.com/pagecraft-io/pagestream/sse"
)

func TestClient_Open(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("expected Accept: text/event-stream, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("event: layout\ndata: {\"blocks\":[]}\n\n"))
	}))
	defer srv.Close()

	client := sse.NewClient(nil)
	stream, err := client.Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(iox.CloseFunc(stream))

	ev, err := stream.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Name != "layout" {
		t.Errorf("expected layout event, got %q", ev.Name)
	}
}

func TestClient_Open_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := sse.NewClient(nil)
	if _, err := client.Open(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
