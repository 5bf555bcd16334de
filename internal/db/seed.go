package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// SeedGates makes sure every configured gate exists and is enabled. Gates
// present in the table but absent from the list are left as they are.
func SeedGates(ctx context.Context, db *sqlx.DB, gates []string) error {
	now := time.Now().UTC().UnixMilli()

	for _, g := range gates {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT INTO gates(gate_id, enabled, created_at_ms, updated_at_ms)
VALUES (?, 1, ?, ?)
ON CONFLICT(gate_id) DO UPDATE SET
  enabled       = 1,
  updated_at_ms = excluded.updated_at_ms;
`, g, now, now); err != nil {
			return fmt.Errorf("seed gate %s: %w", g, err)
		}
	}
	return nil
}
