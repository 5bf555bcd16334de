package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
)

type GateStore struct {
	mu      sync.RWMutex
	known   map[string]struct{}
	scanned map[string]time.Time
}

func NewGateStore(gates []string) *GateStore {
	k := make(map[string]struct{}, len(gates))
	for _, g := range gates {
		g = strings.TrimSpace(g)
		if g != "" {
			k[g] = struct{}{}
		}
	}
	return &GateStore{
		known:   k,
		scanned: make(map[string]time.Time),
	}
}

func (s *GateStore) IsKnown(_ context.Context, gateID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.known[gateID]
	return ok, nil
}

func (s *GateStore) MarkScanned(_ context.Context, gateID string, t time.Time) error {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[gateID]; !ok {
		return nil
	}
	s.scanned[gateID] = t
	return nil
}

func (s *GateStore) ListGates(_ context.Context) ([]store.GateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.GateRecord, 0, len(s.known))
	for g := range s.known {
		rec := store.GateRecord{GateID: g, Enabled: true}
		if t, ok := s.scanned[g]; ok {
			t := t
			rec.LastScanAt = &t
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GateID < out[j].GateID })
	return out, nil
}
