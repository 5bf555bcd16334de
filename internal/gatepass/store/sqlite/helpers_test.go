package sqlite_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/db"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// openTestDB returns a migrated in-memory database with the production
// PRAGMAs. Each test gets its own shared-cache name so the database lives
// as long as the pool does.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	name := "test_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.OpenDSN(context.Background(), db.MemoryDSN(name))
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed at test end.
func newTestWriter(t *testing.T, conn *sqlx.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(w.Close)
	return w
}

var t0 = time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC)

func pendingRequest(id string) visit.Request {
	return visit.Request{
		ID:            id,
		RequesterID:   "visitor-" + id,
		RequesterName: "Visitor " + id,
		Department:    "Physics",
		Purpose:       "Lab tour",
		VisitDate:     t0.Truncate(24 * time.Hour),
		TimeSlot:      "09:00-11:00",
		Status:        visit.StatusPending,
		CreatedAt:     t0,
	}
}

func approve(rec visit.Request, token string) visit.Request {
	decided := t0.Add(time.Minute)
	rec.Status = visit.StatusApproved
	rec.DecidedBy = "admin-1"
	rec.DecidedAt = &decided
	rec.Pass = &visit.Pass{
		Token:         token,
		IssuedAt:      decided,
		ExpiresAt:     decided.Add(24 * time.Hour),
		ValidityHours: 24,
		ApprovedBy:    "admin-1",
	}
	return rec
}
