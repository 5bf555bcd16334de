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
)

type GateStore struct {
	db     *sqlx.DB
	writer *dbpkg.Worker
}

func NewGateStore(db *sqlx.DB, writer *dbpkg.Worker) *GateStore {
	return &GateStore{db: db, writer: writer}
}

// IsKnown treats a gate as known when it has a row and is enabled.
func (s *GateStore) IsKnown(ctx context.Context, gateID string) (bool, error) {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return false, nil
	}

	var enabled int
	err := s.db.GetContext(ctx, &enabled, `SELECT enabled FROM gates WHERE gate_id = ?;`, gateID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsKnown query: %w", err)
	}
	return enabled == 1, nil
}

// MarkScanned stamps the last scan time of a known gate. Unknown gates are
// never inserted here; they only come from configuration.
func (s *GateStore) MarkScanned(ctx context.Context, gateID string, t time.Time) error {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := toMs(t)

	return s.writer.Do(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE gates
SET last_scan_at_ms = MAX(COALESCE(last_scan_at_ms, 0), ?),
    updated_at_ms   = ?
WHERE gate_id = ?;
`, ms, ms, gateID); err != nil {
			return fmt.Errorf("MarkScanned update: %w", err)
		}
		return nil
	})
}

func (s *GateStore) ListGates(ctx context.Context) ([]store.GateRecord, error) {
	var rows []struct {
		GateID     string        `db:"gate_id"`
		Enabled    int           `db:"enabled"`
		LastScanMs sql.NullInt64 `db:"last_scan_at_ms"`
	}
	if err := s.db.SelectContext(ctx, &rows, `
SELECT gate_id, enabled, last_scan_at_ms FROM gates ORDER BY gate_id;`); err != nil {
		return nil, fmt.Errorf("ListGates query: %w", err)
	}

	out := make([]store.GateRecord, 0, len(rows))
	for _, r := range rows {
		rec := store.GateRecord{GateID: r.GateID, Enabled: r.Enabled == 1}
		if r.LastScanMs.Valid {
			t := fromMs(r.LastScanMs.Int64)
			rec.LastScanAt = &t
		}
		out = append(out, rec)
	}
	return out, nil
}
