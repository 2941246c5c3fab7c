// Package catalog talks to the backend search endpoint and holds the current
// catalog snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jscyril/sonicstream/api"
	playerrors "github.com/jscyril/sonicstream/pkg/errors"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"
)

// maxCatalogBytes bounds the search response body
const maxCatalogBytes = 8 << 20

// Client fetches catalogs from the backend
type Client struct {
	base  *url.URL
	http  *http.Client
	group singleflight.Group
}

// NewClient creates a client for the backend rooted at baseURL
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse backend url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("backend url %q: missing host", baseURL)
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// SearchURL returns the search endpoint for query
func (c *Client) SearchURL(query string) string {
	u := *c.base
	u.Path = c.base.Path + "/search"
	u.RawQuery = url.Values{"q": []string{query}}.Encode()
	return u.String()
}

// StreamURL returns the stream endpoint for track
func (c *Client) StreamURL(track api.Track) string {
	u := *c.base
	u.Path = c.base.Path + "/stream/" + string(track)
	u.RawPath = c.base.EscapedPath() + "/stream/" + url.PathEscape(string(track))
	return u.String()
}

// FetchCatalog returns the tracks matching query; the empty query means all.
// Concurrent calls with the same query share one request.
func (c *Client) FetchCatalog(ctx context.Context, query string) ([]api.Track, error) {
	query = norm.NFC.String(query)

	v, err, _ := c.group.Do(query, func() (interface{}, error) {
		return c.fetch(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	// Shared result, hand every caller its own slice
	shared := v.([]api.Track)
	tracks := make([]api.Track, len(shared))
	copy(tracks, shared)
	return tracks, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]api.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(query), nil)
	if err != nil {
		return nil, &playerrors.CatalogFetchError{Query: query, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &playerrors.CatalogFetchError{Query: query, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &playerrors.CatalogFetchError{
			Query:  query,
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var names []string
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&names); err != nil {
		return nil, &playerrors.CatalogFetchError{Query: query, Err: errors.Wrap(err, "decode response")}
	}

	tracks := make([]api.Track, 0, len(names))
	for _, name := range names {
		tracks = append(tracks, api.Track(name))
	}
	return tracks, nil
}
