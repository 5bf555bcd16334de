package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/access"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// Reports serves the read-only views over requests and the scan log.
type Reports struct {
	visits store.VisitStore
	scans  store.ScanLogStore
}

func NewReports(visits store.VisitStore, scans store.ScanLogStore) *Reports {
	return &Reports{visits: visits, scans: scans}
}

// OnCampus lists visitors currently inside, most recent entry first.
func (r *Reports) OnCampus(ctx context.Context) ([]visit.Request, error) {
	return r.visits.OnCampus(ctx)
}

func (r *Reports) History(ctx context.Context, f store.ScanLogFilter) ([]visit.ScanLogEntry, error) {
	return r.scans.Query(ctx, f)
}

func (r *Reports) Summary(ctx context.Context, agent string, since time.Time) (store.ScanSummary, error) {
	return r.scans.Summary(ctx, agent, since)
}

// Reconcile replays the scan log of one request and checks it reproduces
// the stored entry and exit. A mismatch wraps access.ErrInconsistentLog.
//
// Only successful entry and exit rows move state, so they are fetched by
// action; verify rows, however many, never crowd them out of the window.
func (r *Reports) Reconcile(ctx context.Context, requestID string) error {
	rec, err := r.visits.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}

	var rows []visit.ScanLogEntry
	for _, action := range []visit.Action{visit.ActionEntry, visit.ActionExit} {
		got, err := r.scans.Query(ctx, store.ScanLogFilter{
			RequestID: requestID,
			Action:    action,
			Outcome:   visit.OutcomeSuccess,
			Limit:     store.MaxQueryLimit,
		})
		if err != nil {
			return err
		}
		rows = append(rows, got...)
	}

	got, err := access.Replay(rows)
	if err != nil {
		return err
	}
	p := got[requestID]
	if !sameCheckpoint(p.Entry, rec.Entry) {
		return fmt.Errorf("%w: request %s entry differs from log", access.ErrInconsistentLog, requestID)
	}
	if !sameCheckpoint(p.Exit, rec.Exit) {
		return fmt.Errorf("%w: request %s exit differs from log", access.ErrInconsistentLog, requestID)
	}
	return nil
}

func sameCheckpoint(a, b *visit.Checkpoint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Gate == b.Gate && a.Agent == b.Agent && a.At.Equal(b.At)
}
