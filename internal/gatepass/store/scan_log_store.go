package store

import (
	"context"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// ScanLogFilter selects scan log rows. Zero-valued fields do not filter.
// From is inclusive and To is exclusive.
type ScanLogFilter struct {
	RequestID string
	Agent     string
	Gate      string
	Action    visit.Action
	Outcome   visit.Outcome
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// Normalized clamps Limit and Offset into the supported range.
func (f ScanLogFilter) Normalized() ScanLogFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultQueryLimit
	}
	if f.Limit > MaxQueryLimit {
		f.Limit = MaxQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether e passes every set field of the filter.
func (f ScanLogFilter) Matches(e visit.ScanLogEntry) bool {
	switch {
	case f.RequestID != "" && e.RequestID != f.RequestID:
		return false
	case f.Agent != "" && e.Agent != f.Agent:
		return false
	case f.Gate != "" && e.Gate != f.Gate:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.Outcome != "" && e.Outcome != f.Outcome:
		return false
	case !f.From.IsZero() && e.ScannedAt.Before(f.From):
		return false
	case !f.To.IsZero() && !e.ScannedAt.Before(f.To):
		return false
	}
	return true
}

// ScanSummary counts an agent's scans since a point in time. Entries and
// Exits count successful movements only; Failures counts every failed row.
type ScanSummary struct {
	Total    int
	Entries  int
	Exits    int
	Failures int
}

// Add folds one row into the summary.
func (s *ScanSummary) Add(e visit.ScanLogEntry) {
	s.Total++
	if e.Outcome != visit.OutcomeSuccess {
		s.Failures++
		return
	}
	switch e.Action {
	case visit.ActionEntry:
		s.Entries++
	case visit.ActionExit:
		s.Exits++
	}
}

// ScanLogStore is the append-only audit log of every scan. There is no
// update or delete.
type ScanLogStore interface {
	Append(ctx context.Context, e visit.ScanLogEntry) error

	// Query returns matching rows ordered by ScannedAt descending; rows
	// with the same timestamp come back newest-appended first.
	Query(ctx context.Context, f ScanLogFilter) ([]visit.ScanLogEntry, error)

	// Summary counts rows for agent at or after since. An empty agent
	// counts every agent.
	Summary(ctx context.Context, agent string, since time.Time) (ScanSummary, error)
}
