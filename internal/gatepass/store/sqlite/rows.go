// Package sqlite implements the gatepass stores on modernc.org/sqlite.
// Reads go through sqlx directly; every write is a transaction on the
// single db.Worker.
package sqlite

import (
	"database/sql"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

const visitColumns = `
  request_id, requester_id, requester_name, department, purpose,
  visit_date_ms, time_slot, status,
  pass_token, pass_issued_at_ms, pass_expires_at_ms, validity_hours, approved_by,
  remarks, decided_by, decided_at_ms,
  entry_gate, entry_agent, entry_at_ms,
  exit_gate, exit_agent, exit_at_ms,
  created_at_ms`

type visitRow struct {
	RequestID     string         `db:"request_id"`
	RequesterID   string         `db:"requester_id"`
	RequesterName string         `db:"requester_name"`
	Department    string         `db:"department"`
	Purpose       string         `db:"purpose"`
	VisitDateMs   sql.NullInt64  `db:"visit_date_ms"`
	TimeSlot      string         `db:"time_slot"`
	Status        string         `db:"status"`
	PassToken     sql.NullString `db:"pass_token"`
	PassIssuedMs  sql.NullInt64  `db:"pass_issued_at_ms"`
	PassExpiresMs sql.NullInt64  `db:"pass_expires_at_ms"`
	ValidityHours sql.NullInt64  `db:"validity_hours"`
	ApprovedBy    sql.NullString `db:"approved_by"`
	Remarks       string         `db:"remarks"`
	DecidedBy     sql.NullString `db:"decided_by"`
	DecidedAtMs   sql.NullInt64  `db:"decided_at_ms"`
	EntryGate     sql.NullString `db:"entry_gate"`
	EntryAgent    sql.NullString `db:"entry_agent"`
	EntryAtMs     sql.NullInt64  `db:"entry_at_ms"`
	ExitGate      sql.NullString `db:"exit_gate"`
	ExitAgent     sql.NullString `db:"exit_agent"`
	ExitAtMs      sql.NullInt64  `db:"exit_at_ms"`
	CreatedAtMs   int64          `db:"created_at_ms"`
}

func (r visitRow) toRequest() visit.Request {
	rec := visit.Request{
		ID:            r.RequestID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		Department:    r.Department,
		Purpose:       r.Purpose,
		TimeSlot:      r.TimeSlot,
		Status:        visit.Status(r.Status),
		Remarks:       r.Remarks,
		DecidedBy:     r.DecidedBy.String,
		CreatedAt:     fromMs(r.CreatedAtMs),
	}
	if r.VisitDateMs.Valid {
		rec.VisitDate = fromMs(r.VisitDateMs.Int64)
	}
	if r.DecidedAtMs.Valid {
		t := fromMs(r.DecidedAtMs.Int64)
		rec.DecidedAt = &t
	}
	if r.PassToken.Valid {
		rec.Pass = &visit.Pass{
			Token:         r.PassToken.String,
			IssuedAt:      fromMs(r.PassIssuedMs.Int64),
			ExpiresAt:     fromMs(r.PassExpiresMs.Int64),
			ValidityHours: int(r.ValidityHours.Int64),
			ApprovedBy:    r.ApprovedBy.String,
		}
	}
	if r.EntryAtMs.Valid {
		rec.Entry = &visit.Checkpoint{
			Gate:  r.EntryGate.String,
			Agent: r.EntryAgent.String,
			At:    fromMs(r.EntryAtMs.Int64),
		}
	}
	if r.ExitAtMs.Valid {
		rec.Exit = &visit.Checkpoint{
			Gate:  r.ExitGate.String,
			Agent: r.ExitAgent.String,
			At:    fromMs(r.ExitAtMs.Int64),
		}
	}
	return rec
}

type scanRow struct {
	ScanID      string `db:"scan_id"`
	RequestID   string `db:"request_id"`
	Agent       string `db:"agent"`
	Action      string `db:"action"`
	Gate        string `db:"gate"`
	ScannedAtMs int64  `db:"scanned_at_ms"`
	Outcome     string `db:"outcome"`
	Reason      string `db:"reason"`
}

func (r scanRow) toEntry() visit.ScanLogEntry {
	return visit.ScanLogEntry{
		ID:        r.ScanID,
		RequestID: r.RequestID,
		Agent:     r.Agent,
		Action:    visit.Action(r.Action),
		Gate:      r.Gate,
		ScannedAt: fromMs(r.ScannedAtMs),
		Outcome:   visit.Outcome(r.Outcome),
		Reason:    visit.Reason(r.Reason),
	}
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toMs(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// nullMs maps the zero time to NULL.
func nullMs(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return toMs(t)
}
