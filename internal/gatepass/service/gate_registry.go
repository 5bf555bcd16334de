package service

import (
	"context"
	"strings"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
)

// GateRegistry answers whether a gate may submit scans and tracks when
// each gate last did.
type GateRegistry struct {
	store store.GateStore
}

func NewGateRegistry(st store.GateStore) *GateRegistry {
	return &GateRegistry{store: st}
}

func (r *GateRegistry) IsKnown(ctx context.Context, gate string) (bool, error) {
	gate = strings.TrimSpace(gate)
	if gate == "" {
		return false, nil
	}
	return r.store.IsKnown(ctx, gate)
}

func (r *GateRegistry) NoteScanned(ctx context.Context, gate string, at time.Time) error {
	gate = strings.TrimSpace(gate)
	if gate == "" {
		return nil
	}
	return r.store.MarkScanned(ctx, gate, at)
}

func (r *GateRegistry) List(ctx context.Context) ([]store.GateRecord, error) {
	return r.store.ListGates(ctx)
}
