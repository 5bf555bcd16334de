// Package store defines the persistence contracts for visit requests, the
// scan audit log and the gate registry.
package store

import (
	"context"
	"errors"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by conditional writes whose precondition no
	// longer holds (the request is not pending, or the checkpoint is
	// already set).
	ErrConflict = errors.New("conflict")
)

// VisitStore is the single authoritative store of visit requests.
type VisitStore interface {
	CreateRequest(ctx context.Context, rec visit.Request) error
	GetRequest(ctx context.Context, id string) (visit.Request, error)

	// Decide persists an approval or rejection of rec.ID. The write only
	// happens while the stored request is still pending; otherwise it
	// returns ErrConflict.
	Decide(ctx context.Context, rec visit.Request) error

	// RecordCheckpoint sets the entry or exit of a request, conditional on
	// that field being unset (and, for exit, on entry being set). A failed
	// precondition returns ErrConflict.
	RecordCheckpoint(ctx context.Context, id string, kind visit.CheckpointKind, cp visit.Checkpoint) error

	// RecordScan is RecordCheckpoint plus the scan log row that justifies
	// it, committed together: either both persist or neither does.
	RecordScan(ctx context.Context, id string, kind visit.CheckpointKind, cp visit.Checkpoint, entry visit.ScanLogEntry) error

	// OnCampus lists approved requests that have entered and not exited,
	// most recent entry first.
	OnCampus(ctx context.Context) ([]visit.Request, error)
}
