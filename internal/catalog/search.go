package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jscyril/sonicstream/api"
	"github.com/rs/zerolog/log"
)

// Fetcher is the part of Client the searcher depends on
type Fetcher interface {
	FetchCatalog(ctx context.Context, query string) ([]api.Track, error)
}

// Result is the outcome of one catalog fetch. Generation orders fetches by
// dispatch time.
type Result struct {
	Generation uint64
	Query      string
	Tracks     []api.Track
	Err        error
}

// Searcher debounces search input into catalog fetches and delivers the
// results on a channel.
type Searcher struct {
	fetcher   Fetcher
	debouncer *Debouncer
	results   chan Result
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	gen       atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewSearcher creates a searcher; afterFunc may be nil for the real clock
func NewSearcher(fetcher Fetcher, delay time.Duration, afterFunc AfterFunc) *Searcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Searcher{
		fetcher:   fetcher,
		debouncer: NewDebouncer(delay, afterFunc),
		results:   make(chan Result, 8),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Results delivers fetch outcomes in completion order
func (s *Searcher) Results() <-chan Result {
	return s.results
}

// Search schedules a fetch for query once input has been quiet for the
// debounce delay. In-flight fetches are not cancelled.
func (s *Searcher) Search(query string) {
	s.debouncer.Call(func() { s.dispatch(query) })
}

// dispatch starts a fetch for query unless the searcher has been closed. The
// debounce timer may fire while Close is running.
func (s *Searcher) dispatch(query string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	gen := s.gen.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(s.run(s.ctx, gen, query))
	}()
}

// Fetch performs an immediate fetch, bypassing the debouncer
func (s *Searcher) Fetch(ctx context.Context, query string) Result {
	return s.run(ctx, s.gen.Add(1), query)
}

func (s *Searcher) run(ctx context.Context, gen uint64, query string) Result {
	tracks, err := s.fetcher.FetchCatalog(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("catalog fetch failed")
	} else {
		log.Debug().Str("query", query).Int("tracks", len(tracks)).Uint64("generation", gen).Msg("catalog fetched")
	}
	return Result{Generation: gen, Query: query, Tracks: tracks, Err: err}
}

func (s *Searcher) deliver(r Result) {
	select {
	case s.results <- r:
	case <-s.ctx.Done():
	}
}

// Close drops pending searches and waits for dispatched ones to finish
func (s *Searcher) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.cancel()
	s.wg.Wait()
}
