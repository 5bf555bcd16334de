package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	dbpkg "github.com/Parthiban1805/Campus-visitor-pass/internal/db"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

type VisitStore struct {
	db     *sqlx.DB
	writer *dbpkg.Worker
}

func NewVisitStore(db *sqlx.DB, writer *dbpkg.Worker) *VisitStore {
	return &VisitStore{db: db, writer: writer}
}

func (s *VisitStore) CreateRequest(ctx context.Context, rec visit.Request) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("CreateRequest: request id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = visit.StatusPending
	}
	created := toMs(rec.CreatedAt)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO visit_requests(
  request_id, requester_id, requester_name, department, purpose,
  visit_date_ms, time_slot, status, remarks,
  created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID, rec.RequesterID, rec.RequesterName, rec.Department, rec.Purpose,
			nullMs(rec.VisitDate), rec.TimeSlot, string(rec.Status), rec.Remarks,
			created, created,
		)
		if err != nil {
			return fmt.Errorf("CreateRequest insert: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("CreateRequest %s: %w", rec.ID, store.ErrConflict)
		}
		return nil
	})
}

func (s *VisitStore) GetRequest(ctx context.Context, id string) (visit.Request, error) {
	var row visitRow
	err := s.db.GetContext(ctx, &row,
		`SELECT`+visitColumns+` FROM visit_requests WHERE request_id = ?;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return visit.Request{}, store.ErrNotFound
	}
	if err != nil {
		return visit.Request{}, fmt.Errorf("GetRequest query: %w", err)
	}
	return row.toRequest(), nil
}

func (s *VisitStore) Decide(ctx context.Context, rec visit.Request) error {
	var (
		token, approvedBy any
		issued, expires   any
		validity          any
		decidedBy         any
		decidedAt         any
	)
	now := time.Now().UTC()
	if rec.Status == visit.StatusApproved {
		if rec.Pass == nil {
			return errors.New("Decide: approved request without a pass")
		}
		token = rec.Pass.Token
		issued = toMs(rec.Pass.IssuedAt)
		expires = toMs(rec.Pass.ExpiresAt)
		validity = rec.Pass.ValidityHours
		approvedBy = rec.Pass.ApprovedBy
	}
	if rec.DecidedBy != "" {
		decidedBy = rec.DecidedBy
	}
	if rec.DecidedAt != nil {
		decidedAt = toMs(*rec.DecidedAt)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE visit_requests
SET status             = ?,
    pass_token         = ?,
    pass_issued_at_ms  = ?,
    pass_expires_at_ms = ?,
    validity_hours     = ?,
    approved_by        = ?,
    remarks            = ?,
    decided_by         = ?,
    decided_at_ms      = ?,
    updated_at_ms      = ?
WHERE request_id = ? AND status = 'pending';
`,
			string(rec.Status), token, issued, expires, validity, approvedBy,
			rec.Remarks, decidedBy, decidedAt, toMs(now),
			rec.ID,
		)
		if err != nil {
			return fmt.Errorf("Decide update: %w", err)
		}
		return s.expectOne(ctx, tx, res, rec.ID, "Decide")
	})
}

func (s *VisitStore) RecordCheckpoint(ctx context.Context, id string, kind visit.CheckpointKind, cp visit.Checkpoint) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.setCheckpoint(ctx, tx, "RecordCheckpoint", id, kind, cp)
	})
}

func (s *VisitStore) RecordScan(ctx context.Context, id string, kind visit.CheckpointKind, cp visit.Checkpoint, entry visit.ScanLogEntry) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.setCheckpoint(ctx, tx, "RecordScan", id, kind, cp); err != nil {
			return err
		}
		return insertScan(ctx, tx, entry)
	})
}

func (s *VisitStore) setCheckpoint(ctx context.Context, tx *sqlx.Tx, op, id string, kind visit.CheckpointKind, cp visit.Checkpoint) error {
	var q string
	switch kind {
	case visit.CheckpointEntry:
		q = `
UPDATE visit_requests
SET entry_gate = ?, entry_agent = ?, entry_at_ms = ?, updated_at_ms = ?
WHERE request_id = ? AND status = 'approved' AND entry_at_ms IS NULL;
`
	case visit.CheckpointExit:
		q = `
UPDATE visit_requests
SET exit_gate = ?, exit_agent = ?, exit_at_ms = ?, updated_at_ms = ?
WHERE request_id = ? AND status = 'approved'
  AND entry_at_ms IS NOT NULL AND exit_at_ms IS NULL;
`
	default:
		return fmt.Errorf("%s: unknown checkpoint %q", op, kind)
	}

	res, err := tx.ExecContext(ctx, q, cp.Gate, cp.Agent, toMs(cp.At), toMs(time.Now()), id)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, kind, err)
	}
	return s.expectOne(ctx, tx, res, id, op)
}

// expectOne turns a zero-row conditional update into ErrNotFound or
// ErrConflict depending on whether the row exists.
func (s *VisitStore) expectOne(ctx context.Context, tx *sqlx.Tx, res sql.Result, id, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM visit_requests WHERE request_id = ?;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s exists check: %w", op, err)
	}
	return fmt.Errorf("%s %s: %w", op, id, store.ErrConflict)
}

func (s *VisitStore) OnCampus(ctx context.Context) ([]visit.Request, error) {
	var rows []visitRow
	err := s.db.SelectContext(ctx, &rows, `SELECT`+visitColumns+`
FROM visit_requests
WHERE status = 'approved' AND entry_at_ms IS NOT NULL AND exit_at_ms IS NULL
ORDER BY entry_at_ms DESC, request_id ASC;`)
	if err != nil {
		return nil, fmt.Errorf("OnCampus query: %w", err)
	}

	out := make([]visit.Request, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRequest())
	}
	return out, nil
}
