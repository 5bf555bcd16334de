// Package memory holds in-process store implementations for tests and dev.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// VisitStore keeps visit requests in a map. Conditional writes compare and
// set under the store mutex, mirroring the WHERE clauses of the sqlite store.
//
// RecordScan appends to log while holding the mutex and only then swaps in
// the new record, so a failed append leaves the record untouched.
type VisitStore struct {
	mu   sync.RWMutex
	data map[string]visit.Request
	log  store.ScanLogStore
}

// NewVisitStore creates an empty store. log receives the rows written by
// RecordScan and may be nil when nothing scans.
func NewVisitStore(log store.ScanLogStore) *VisitStore {
	return &VisitStore{data: make(map[string]visit.Request), log: log}
}

func (s *VisitStore) CreateRequest(_ context.Context, rec visit.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[rec.ID]; ok {
		return fmt.Errorf("CreateRequest %s: %w", rec.ID, store.ErrConflict)
	}
	s.data[rec.ID] = rec.Clone()
	return nil
}

func (s *VisitStore) GetRequest(_ context.Context, id string) (visit.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return visit.Request{}, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *VisitStore) Decide(_ context.Context, rec visit.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data[rec.ID]
	if !ok {
		return store.ErrNotFound
	}
	if cur.Status != visit.StatusPending {
		return fmt.Errorf("Decide %s: %w", rec.ID, store.ErrConflict)
	}

	next := cur.Clone()
	next.Status = rec.Status
	next.Remarks = rec.Remarks
	next.DecidedBy = rec.DecidedBy
	next.DecidedAt = nil
	if rec.DecidedAt != nil {
		t := *rec.DecidedAt
		next.DecidedAt = &t
	}
	next.Pass = nil
	if rec.Status == visit.StatusApproved && rec.Pass != nil {
		p := *rec.Pass
		next.Pass = &p
	}
	s.data[rec.ID] = next
	return nil
}

func (s *VisitStore) RecordCheckpoint(_ context.Context, id string, kind visit.CheckpointKind, cp visit.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.withCheckpoint("RecordCheckpoint", id, kind, cp)
	if err != nil {
		return err
	}
	s.data[id] = next
	return nil
}

func (s *VisitStore) RecordScan(ctx context.Context, id string, kind visit.CheckpointKind, cp visit.Checkpoint, entry visit.ScanLogEntry) error {
	if s.log == nil {
		return errors.New("RecordScan: no scan log attached")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.withCheckpoint("RecordScan", id, kind, cp)
	if err != nil {
		return err
	}
	if err := s.log.Append(ctx, entry); err != nil {
		return fmt.Errorf("RecordScan %s append: %w", id, err)
	}
	s.data[id] = next
	return nil
}

// withCheckpoint returns a copy of the record with cp set. Callers hold mu.
func (s *VisitStore) withCheckpoint(op, id string, kind visit.CheckpointKind, cp visit.Checkpoint) (visit.Request, error) {
	cur, ok := s.data[id]
	if !ok {
		return visit.Request{}, store.ErrNotFound
	}
	if cur.Status != visit.StatusApproved {
		return visit.Request{}, fmt.Errorf("%s %s: %w", op, id, store.ErrConflict)
	}

	next := cur.Clone()
	switch kind {
	case visit.CheckpointEntry:
		if cur.Entry != nil {
			return visit.Request{}, fmt.Errorf("%s %s entry: %w", op, id, store.ErrConflict)
		}
		next.Entry = &cp
	case visit.CheckpointExit:
		if cur.Entry == nil || cur.Exit != nil {
			return visit.Request{}, fmt.Errorf("%s %s exit: %w", op, id, store.ErrConflict)
		}
		next.Exit = &cp
	default:
		return visit.Request{}, fmt.Errorf("%s: unknown checkpoint %q", op, kind)
	}
	return next, nil
}

func (s *VisitStore) OnCampus(_ context.Context) ([]visit.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []visit.Request
	for _, rec := range s.data {
		if rec.Status == visit.StatusApproved && rec.OnCampus() {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entry.At.Equal(out[j].Entry.At) {
			return out[i].ID < out[j].ID
		}
		return out[i].Entry.At.After(out[j].Entry.At)
	})
	return out, nil
}
