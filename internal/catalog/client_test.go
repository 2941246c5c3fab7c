package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jscyril/sonicstream/api"
	playerrors "github.com/jscyril/sonicstream/pkg/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchCatalog(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q, want /search", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`["song1","song2","my song.mp3"]`))
	})

	tracks, err := c.FetchCatalog(context.Background(), "rock & roll")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if gotQuery != "rock & roll" {
		t.Errorf("server saw query %q", gotQuery)
	}

	want := []api.Track{"song1", "song2", "my song.mp3"}
	if len(tracks) != len(want) {
		t.Fatalf("got %d tracks, want %d", len(tracks), len(want))
	}
	for i := range want {
		if tracks[i] != want[i] {
			t.Errorf("tracks[%d] = %q, want %q", i, tracks[i], want[i])
		}
	}
}

func TestFetchCatalogEmptyQueryMeansAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["q"]; !ok {
			t.Error("empty query should still send q=")
		}
		w.Write([]byte(`[]`))
	})

	tracks, err := c.FetchCatalog(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}

func TestFetchCatalogNormalizesQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`[]`))
	})

	// "e" followed by a combining acute accent composes to U+00E9
	if _, err := c.FetchCatalog(context.Background(), "cafe\u0301"); err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if gotQuery != "caf\u00e9" {
		t.Errorf("query = %q, want NFC form", gotQuery)
	}
}

func TestFetchCatalogErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"not":"an array"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.FetchCatalog(context.Background(), "x")
			if !errors.Is(err, playerrors.ErrCatalogFetch) {
				t.Fatalf("err = %v, want ErrCatalogFetch", err)
			}
			var fetchErr *playerrors.CatalogFetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("err = %T, want *CatalogFetchError", err)
			}
			if fetchErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", fetchErr.Status, tt.wantStatus)
			}
		})
	}
}

func TestFetchCatalogTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.FetchCatalog(context.Background(), ""); !errors.Is(err, playerrors.ErrCatalogFetch) {
		t.Errorf("err = %v, want ErrCatalogFetch", err)
	}
}

func TestFetchCatalogCollapsesConcurrentQueries(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(`["a"]`))
	})

	done := make(chan []api.Track, 2)
	for i := 0; i < 2; i++ {
		go func() {
			tracks, _ := c.FetchCatalog(context.Background(), "same")
			done <- tracks
		}()
	}

	// Give both callers time to join the same flight
	time.Sleep(100 * time.Millisecond)
	close(release)

	first, second := <-done, <-done
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("both callers should get the result, got %v and %v", first, second)
	}
	first[0] = "mutated"
	if second[0] != "a" {
		t.Error("callers must not share the result slice")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://", "::not a url"} {
		if _, err := NewClient(raw, time.Second); err == nil {
			t.Errorf("NewClient(%q) should fail", raw)
		}
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base  string
		track api.Track
		want  string
	}{
		{"http://music.local", "song1", "http://music.local/stream/song1"},
		{"http://music.local/", "my song.mp3", "http://music.local/stream/my%20song.mp3"},
		{"https://host/api", "a/b", "https://host/api/stream/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(string(tt.track), func(t *testing.T) {
			c, err := NewClient(tt.base, time.Second)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if got := c.StreamURL(tt.track); got != tt.want {
				t.Errorf("StreamURL(%q) = %q, want %q", tt.track, got, tt.want)
			}
		})
	}
}

func TestSearchURL(t *testing.T) {
	c, err := NewClient("http://music.local", time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.SearchURL(""); got != "http://music.local/search?q=" {
		t.Errorf("SearchURL(\"\") = %q", got)
	}
	if got := c.SearchURL("a b"); got != "http://music.local/search?q=a+b" {
		t.Errorf("SearchURL(\"a b\") = %q", got)
	}
}
