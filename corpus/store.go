// Package corpus implements the backing string store, segment views, and
// paged segmentations that the rest of the tabulation kernel builds on
// (corresponding to C1, C2 and C3 of the design).
package corpus

import (
	"sync"

	"github.com/corpuskit/lttl/errs"
)

// storeEntry is either a concrete string or a redirect to an earlier
// concrete entry. Redirects never chain: resolving always costs one hop.
type storeEntry struct {
	value      string
	isRedirect bool
	redirect   int
}

// Store is the append-only backing sequence of strings that segments refer
// into by index. The reference implementation keeps a single process-wide
// instance of this; this port threads an explicit *Store through every
// constructor instead of relying on global mutable state, so that
// independent tests (and independent corpora within one process) don't
// share entries by accident. Embedding hosts that want the original
// process-wide-singleton behavior can simply share one *Store.
type Store struct {
	mu      sync.Mutex
	entries []storeEntry
}

// NewStore returns an empty backing string store.
func NewStore() *Store {
	return &Store{}
}

// AppendString registers a new concrete string and returns its index.
func (s *Store) AppendString(str string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, storeEntry{value: str})
	return len(s.entries) - 1
}

// AppendRedirect registers a new entry that redirects to target, collapsing
// target itself if it is already a redirect. Its only caller outside tests
// is the recode transform, which needs a fresh store entry that dereferences
// to an unchanged original when recoding left the text untouched.
func (s *Store) AppendRedirect(target int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[target].isRedirect {
		target = s.entries[target].redirect
	}
	s.entries = append(s.entries, storeEntry{isRedirect: true, redirect: target})
	return len(s.entries) - 1
}

// SetRedirect replaces the redirect at i so that it points at j instead.
// Only a redirect may replace a redirect: i must already be a redirect
// entry, and j must resolve (after collapsing) to a concrete entry distinct
// from i.
func (s *Store) SetRedirect(i, j int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.entries) || j < 0 || j >= len(s.entries) {
		return errs.RangeErrorf("store: redirect index out of bounds: i=%d j=%d size=%d", i, j, len(s.entries))
	}
	if !s.entries[i].isRedirect {
		return errs.RangeErrorf("store: entry %d is concrete; only a redirect may be replaced", i)
	}
	target := j
	if s.entries[target].isRedirect {
		target = s.entries[target].redirect
	}
	if j == i || target == i {
		return errs.RangeErrorf("store: self-referential redirect at %d", i)
	}
	s.entries[i] = storeEntry{isRedirect: true, redirect: target}
	return nil
}

func (s *Store) normalize(i int) (int, error) {
	n := len(s.entries)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, errs.RangeErrorf("store: index %d out of bounds (size %d)", i, n)
	}
	return i, nil
}

// Resolve returns the concrete string at index i, dereferencing one
// redirect hop if necessary. Negative indices count from the end, as in
// Python.
func (s *Store) Resolve(i int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.normalize(i)
	if err != nil {
		return "", err
	}
	e := s.entries[idx]
	if e.isRedirect {
		e = s.entries[e.redirect]
	}
	return e.value, nil
}

// RealIndex dereferences a single redirect hop (or returns i unchanged if i
// is already concrete), mirroring Segment.get_real_str_index in the
// reference implementation.
func (s *Store) RealIndex(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.normalize(i)
	if err != nil {
		return i
	}
	if s.entries[idx].isRedirect {
		return s.entries[idx].redirect
	}
	return idx
}

// Len returns the number of entries in the store (concrete and redirect).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
