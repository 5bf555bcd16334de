package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// ScanLogStore is an in-memory append-only scan log.
type ScanLogStore struct {
	mu      sync.Mutex
	entries []visit.ScanLogEntry
	ids     map[string]struct{}
}

func NewScanLogStore() *ScanLogStore {
	return &ScanLogStore{ids: make(map[string]struct{})}
}

func (s *ScanLogStore) Append(_ context.Context, e visit.ScanLogEntry) error {
	if e.ID == "" {
		return fmt.Errorf("Append: scan id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[e.ID]; dup {
		return fmt.Errorf("Append %s: %w", e.ID, store.ErrConflict)
	}
	s.ids[e.ID] = struct{}{}
	s.entries = append(s.entries, e)
	return nil
}

func (s *ScanLogStore) Query(_ context.Context, f store.ScanLogFilter) ([]visit.ScanLogEntry, error) {
	f = f.Normalized()

	s.mu.Lock()
	matched := make([]visit.ScanLogEntry, 0)
	// Walk backwards so equal timestamps keep newest-appended first after
	// the stable sort.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if f.Matches(s.entries[i]) {
			matched = append(matched, s.entries[i])
		}
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ScannedAt.After(matched[j].ScannedAt)
	})

	if f.Offset >= len(matched) {
		return []visit.ScanLogEntry{}, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *ScanLogStore) Summary(_ context.Context, agent string, since time.Time) (store.ScanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum store.ScanSummary
	for _, e := range s.entries {
		if agent != "" && e.Agent != agent {
			continue
		}
		if e.ScannedAt.Before(since) {
			continue
		}
		sum.Add(e)
	}
	return sum, nil
}

// Entries returns a copy of every appended row in append order. Test-only
// helper.
func (s *ScanLogStore) Entries() []visit.ScanLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]visit.ScanLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
