package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	dbpkg "github.com/Parthiban1805/Campus-visitor-pass/internal/db"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// ScanLogStore persists scan attempts as an append-only audit log. The
// table carries triggers that abort any UPDATE or DELETE.
type ScanLogStore struct {
	db     *sqlx.DB
	writer *dbpkg.Worker
}

func NewScanLogStore(db *sqlx.DB, writer *dbpkg.Worker) *ScanLogStore {
	return &ScanLogStore{db: db, writer: writer}
}

func (s *ScanLogStore) Append(ctx context.Context, e visit.ScanLogEntry) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		return insertScan(ctx, tx, e)
	})
}

// insertScan writes one scan_log row inside tx. VisitStore.RecordScan
// shares it so a checkpoint and its row land in one transaction.
func insertScan(ctx context.Context, tx *sqlx.Tx, e visit.ScanLogEntry) error {
	if e.ID == "" {
		return errors.New("insert scan: scan id is required")
	}
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now().UTC()
	}
	row := scanRow{
		ScanID:      e.ID,
		RequestID:   e.RequestID,
		Agent:       e.Agent,
		Action:      string(e.Action),
		Gate:        e.Gate,
		ScannedAtMs: toMs(e.ScannedAt),
		Outcome:     string(e.Outcome),
		Reason:      string(e.Reason),
	}

	if _, err := tx.NamedExecContext(ctx, `
INSERT INTO scan_log(
  scan_id, request_id, agent, action, gate, scanned_at_ms, outcome, reason
) VALUES (
  :scan_id, :request_id, :agent, :action, :gate, :scanned_at_ms, :outcome, :reason
);
`, row); err != nil {
		return fmt.Errorf("insert scan %s: %w", e.ID, err)
	}
	return nil
}

func (s *ScanLogStore) Query(ctx context.Context, f store.ScanLogFilter) ([]visit.ScanLogEntry, error) {
	f = f.Normalized()

	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		where = append(where, clause)
		args = append(args, v)
	}
	if f.RequestID != "" {
		add("request_id = ?", f.RequestID)
	}
	if f.Agent != "" {
		add("agent = ?", f.Agent)
	}
	if f.Gate != "" {
		add("gate = ?", f.Gate)
	}
	if f.Action != "" {
		add("action = ?", string(f.Action))
	}
	if f.Outcome != "" {
		add("outcome = ?", string(f.Outcome))
	}
	if !f.From.IsZero() {
		add("scanned_at_ms >= ?", toMs(f.From))
	}
	if !f.To.IsZero() {
		add("scanned_at_ms < ?", toMs(f.To))
	}

	q := `
SELECT scan_id, request_id, agent, action, gate, scanned_at_ms, outcome, reason
FROM scan_log`
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY scanned_at_ms DESC, seq DESC\nLIMIT ? OFFSET ?;"
	args = append(args, f.Limit, f.Offset)

	var rows []scanRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("Query scan_log: %w", err)
	}

	out := make([]visit.ScanLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntry())
	}
	return out, nil
}

func (s *ScanLogStore) Summary(ctx context.Context, agent string, since time.Time) (store.ScanSummary, error) {
	var counts struct {
		Total    int `db:"total"`
		Entries  int `db:"entries"`
		Exits    int `db:"exits"`
		Failures int `db:"failures"`
	}
	err := s.db.GetContext(ctx, &counts, `
SELECT
  COUNT(*) AS total,
  COALESCE(SUM(CASE WHEN outcome = 'success' AND action = 'entry' THEN 1 ELSE 0 END), 0) AS entries,
  COALESCE(SUM(CASE WHEN outcome = 'success' AND action = 'exit'  THEN 1 ELSE 0 END), 0) AS exits,
  COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END), 0) AS failures
FROM scan_log
WHERE (? = '' OR agent = ?) AND scanned_at_ms >= ?;
`, agent, agent, toMs(since))
	if err != nil {
		return store.ScanSummary{}, fmt.Errorf("Summary query: %w", err)
	}
	return store.ScanSummary{
		Total:    counts.Total,
		Entries:  counts.Entries,
		Exits:    counts.Exits,
		Failures: counts.Failures,
	}, nil
}
