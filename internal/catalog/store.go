package catalog

import (
	"sync"

	"github.com/jscyril/sonicstream/api"
)

// Store holds the current catalog snapshot. Every fetch replaces it wholesale.
type Store struct {
	tracks  []api.Track
	applied uint64 // generation of the newest applied result
	mu      sync.RWMutex
}

// NewStore creates an empty catalog
func NewStore() *Store {
	return &Store{tracks: make([]api.Track, 0)}
}

// Set replaces the entire catalog
func (s *Store) Set(tracks []api.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracks = make([]api.Track, len(tracks))
	copy(s.tracks, tracks)
}

// Apply installs a fetch result. Failed results leave the catalog unchanged.
// With discardStale, results dispatched before the newest applied one are
// dropped; otherwise the last result to resolve wins.
func (s *Store) Apply(r Result, discardStale bool) bool {
	if r.Err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if discardStale && r.Generation < s.applied {
		return false
	}
	if r.Generation > s.applied {
		s.applied = r.Generation
	}
	s.tracks = make([]api.Track, len(r.Tracks))
	copy(s.tracks, r.Tracks)
	return true
}

// Tracks returns a copy of the catalog
func (s *Store) Tracks() []api.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]api.Track, len(s.tracks))
	copy(result, s.tracks)
	return result
}

// Len returns the number of tracks in the catalog
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Adjacent returns the track step positions away from current, wrapping at
// both ends. A current track missing from the list resolves to the first
// track going forward and the last going backward.
func Adjacent(tracks []api.Track, current api.Track, step int) (api.Track, bool) {
	n := len(tracks)
	if n == 0 {
		return "", false
	}

	i := indexOf(tracks, current)
	if i < 0 {
		if step >= 0 {
			return tracks[0], true
		}
		return tracks[n-1], true
	}

	next := ((i+step)%n + n) % n
	return tracks[next], true
}

func indexOf(tracks []api.Track, track api.Track) int {
	for i, t := range tracks {
		if t == track {
			return i
		}
	}
	return -1
}
