package store

import (
	"context"
	"time"
)

type GateRecord struct {
	GateID     string
	Enabled    bool
	LastScanAt *time.Time
}

// GateStore knows which physical gates may submit scans.
type GateStore interface {
	IsKnown(ctx context.Context, gateID string) (bool, error)
	MarkScanned(ctx context.Context, gateID string, t time.Time) error
	ListGates(ctx context.Context) ([]GateRecord, error)
}
