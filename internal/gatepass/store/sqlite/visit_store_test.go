package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	sqlitestore "github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store/sqlite"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// ═══════════════════════════════════════════════════════════════════════════
// CreateRequest / GetRequest
// ═══════════════════════════════════════════════════════════════════════════

func TestVisitStore_CreateAndGet(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := vs.CreateRequest(ctx, pendingRequest("r1")); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := vs.GetRequest(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != visit.StatusPending {
		t.Errorf("expected pending, got %s", got.Status)
	}
	if got.Pass != nil || got.Entry != nil || got.Exit != nil {
		t.Errorf("new request should have no pass or checkpoints: %+v", got)
	}
	if got.Department != "Physics" || got.TimeSlot != "09:00-11:00" {
		t.Errorf("columns not round-tripped: %+v", got)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("expected created_at %v, got %v", t0, got.CreatedAt)
	}
}

func TestVisitStore_CreateDuplicate_Conflict(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	if err := vs.CreateRequest(ctx, pendingRequest("r1")); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	err := vs.CreateRequest(ctx, pendingRequest("r1"))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestVisitStore_GetMissing_NotFound(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))

	_, err := vs.GetRequest(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Decide — only from pending
// ═══════════════════════════════════════════════════════════════════════════

func TestVisitStore_Decide_ApproveStoresPass(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := pendingRequest("r1")
	if err := vs.CreateRequest(ctx, rec); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := vs.Decide(ctx, approve(rec, "aa:bb")); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	got, err := vs.GetRequest(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != visit.StatusApproved || got.Pass == nil {
		t.Fatalf("expected approved with pass, got %+v", got)
	}
	if got.Pass.Token != "aa:bb" || got.Pass.ValidityHours != 24 {
		t.Errorf("pass not stored: %+v", got.Pass)
	}
	if !got.Pass.ExpiresAt.Equal(t0.Add(time.Minute + 24*time.Hour)) {
		t.Errorf("unexpected expiry %v", got.Pass.ExpiresAt)
	}
	if got.DecidedAt == nil || got.DecidedBy != "admin-1" {
		t.Errorf("decision metadata missing: %+v", got)
	}
}

func TestVisitStore_Decide_SecondDecisionConflicts(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := pendingRequest("r1")
	if err := vs.CreateRequest(ctx, rec); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := vs.Decide(ctx, approve(rec, "aa:bb")); err != nil {
		t.Fatalf("first Decide: %v", err)
	}

	err := vs.Decide(ctx, approve(rec, "cc:dd"))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := vs.GetRequest(ctx, "r1")
	if got.Pass.Token != "aa:bb" {
		t.Errorf("pass was regenerated: %s", got.Pass.Token)
	}
}

func TestVisitStore_Decide_Reject(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	rec := pendingRequest("r1")
	if err := vs.CreateRequest(ctx, rec); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	rec.Status = visit.StatusRejected
	rec.Remarks = "no host available"
	if err := vs.Decide(ctx, rec); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	got, _ := vs.GetRequest(ctx, "r1")
	if got.Status != visit.StatusRejected || got.Pass != nil {
		t.Errorf("expected rejected without pass, got %+v", got)
	}
	if got.Remarks != "no host available" {
		t.Errorf("remarks not stored: %q", got.Remarks)
	}
}

func TestVisitStore_Decide_Missing_NotFound(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))

	err := vs.Decide(context.Background(), approve(pendingRequest("ghost"), "aa:bb"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordCheckpoint — conditional on field absence
// ═══════════════════════════════════════════════════════════════════════════

func seedApproved(t *testing.T, vs *sqlitestore.VisitStore, id string) {
	t.Helper()
	ctx := context.Background()
	rec := pendingRequest(id)
	if err := vs.CreateRequest(ctx, rec); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := vs.Decide(ctx, approve(rec, "tok-"+id)); err != nil {
		t.Fatalf("Decide: %v", err)
	}
}

func sameCheckpoint(got *visit.Checkpoint, want visit.Checkpoint) bool {
	return got != nil && got.Gate == want.Gate && got.Agent == want.Agent && got.At.Equal(want.At)
}

func TestVisitStore_RecordCheckpoint_EntryThenExit(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()
	seedApproved(t, vs, "r1")

	in := visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0.Add(time.Hour)}
	if err := vs.RecordCheckpoint(ctx, "r1", visit.CheckpointEntry, in); err != nil {
		t.Fatalf("entry: %v", err)
	}
	out := visit.Checkpoint{Gate: "East", Agent: "guard-2", At: t0.Add(3 * time.Hour)}
	if err := vs.RecordCheckpoint(ctx, "r1", visit.CheckpointExit, out); err != nil {
		t.Fatalf("exit: %v", err)
	}

	got, _ := vs.GetRequest(ctx, "r1")
	if !sameCheckpoint(got.Entry, in) {
		t.Errorf("entry mismatch: %+v", got.Entry)
	}
	if !sameCheckpoint(got.Exit, out) {
		t.Errorf("exit mismatch: %+v", got.Exit)
	}
}

func TestVisitStore_RecordCheckpoint_NoOverwrite(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()
	seedApproved(t, vs, "r1")

	first := visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0.Add(time.Hour)}
	if err := vs.RecordCheckpoint(ctx, "r1", visit.CheckpointEntry, first); err != nil {
		t.Fatalf("entry: %v", err)
	}
	second := visit.Checkpoint{Gate: "East", Agent: "guard-2", At: t0.Add(2 * time.Hour)}
	err := vs.RecordCheckpoint(ctx, "r1", visit.CheckpointEntry, second)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := vs.GetRequest(ctx, "r1")
	if got.Entry.Gate != "Main" {
		t.Errorf("entry overwritten: %+v", got.Entry)
	}
}

func TestVisitStore_RecordCheckpoint_ExitWithoutEntry_Conflict(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	seedApproved(t, vs, "r1")

	err := vs.RecordCheckpoint(context.Background(), "r1", visit.CheckpointExit,
		visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestVisitStore_RecordCheckpoint_Pending_Conflict(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()
	if err := vs.CreateRequest(ctx, pendingRequest("r1")); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	err := vs.RecordCheckpoint(ctx, "r1", visit.CheckpointEntry,
		visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestVisitStore_RecordCheckpoint_ConcurrentEntry_OneWins(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	seedApproved(t, vs, "r1")

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cp := visit.Checkpoint{Gate: "Main", Agent: fmt.Sprintf("guard-%d", i), At: t0.Add(time.Hour)}
			err := vs.RecordCheckpoint(context.Background(), "r1", visit.CheckpointEntry, cp)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 || conflicts != n-1 {
		t.Errorf("expected 1 success and %d conflicts, got %d and %d", n-1, successes, conflicts)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RecordScan — checkpoint and scan_log row in one transaction
// ═══════════════════════════════════════════════════════════════════════════

func TestVisitStore_RecordScan_CommitsBoth(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	vs := sqlitestore.NewVisitStore(conn, w)
	ls := sqlitestore.NewScanLogStore(conn, w)
	ctx := context.Background()
	seedApproved(t, vs, "r1")

	cp := visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0.Add(time.Hour)}
	e := scanEntry("s1", "r1", "guard-1", "Main", visit.ActionEntry, "", cp.At)
	if err := vs.RecordScan(ctx, "r1", visit.CheckpointEntry, cp, e); err != nil {
		t.Fatalf("RecordScan: %v", err)
	}

	got, _ := vs.GetRequest(ctx, "r1")
	if !sameCheckpoint(got.Entry, cp) {
		t.Errorf("entry mismatch: %+v", got.Entry)
	}
	rows, err := ls.Query(ctx, store.ScanLogFilter{RequestID: "r1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "s1" {
		t.Fatalf("expected the s1 row, got %+v", rows)
	}
}

func TestVisitStore_RecordScan_FailedInsertRollsBackCheckpoint(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	vs := sqlitestore.NewVisitStore(conn, w)
	ls := sqlitestore.NewScanLogStore(conn, w)
	ctx := context.Background()
	seedApproved(t, vs, "r1")

	// A row that already owns the scan id makes the INSERT fail after the
	// UPDATE has run.
	appendScan(t, ls, scanEntry("s1", "r1", "guard-1", "Main", visit.ActionScanAttempt, "", t0))

	cp := visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0.Add(time.Hour)}
	err := vs.RecordScan(ctx, "r1", visit.CheckpointEntry, cp,
		scanEntry("s1", "r1", "guard-1", "Main", visit.ActionEntry, "", cp.At))
	if err == nil {
		t.Fatal("expected the duplicate scan id to fail")
	}

	got, _ := vs.GetRequest(ctx, "r1")
	if got.Entry != nil {
		t.Fatalf("entry survived a failed log insert: %+v", got.Entry)
	}

	// The retry with a fresh id goes through.
	if err := vs.RecordScan(ctx, "r1", visit.CheckpointEntry, cp,
		scanEntry("s2", "r1", "guard-1", "Main", visit.ActionEntry, "", cp.At)); err != nil {
		t.Fatalf("retry: %v", err)
	}
	rows, _ := ls.Query(ctx, store.ScanLogFilter{RequestID: "r1", Action: visit.ActionEntry})
	if len(rows) != 1 || rows[0].ID != "s2" {
		t.Errorf("expected only the s2 entry row, got %+v", rows)
	}
}

func TestVisitStore_RecordScan_ConflictWritesNoRow(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	vs := sqlitestore.NewVisitStore(conn, w)
	ls := sqlitestore.NewScanLogStore(conn, w)
	ctx := context.Background()
	seedApproved(t, vs, "r1")

	err := vs.RecordScan(ctx, "r1", visit.CheckpointExit,
		visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0},
		scanEntry("s1", "r1", "guard-1", "Main", visit.ActionExit, "", t0))
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	rows, _ := ls.Query(ctx, store.ScanLogFilter{RequestID: "r1"})
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// OnCampus
// ═══════════════════════════════════════════════════════════════════════════

func TestVisitStore_OnCampus_OrderedByEntryDesc(t *testing.T) {
	conn := openTestDB(t)
	vs := sqlitestore.NewVisitStore(conn, newTestWriter(t, conn))
	ctx := context.Background()

	for _, id := range []string{"early", "late", "gone", "waiting"} {
		seedApproved(t, vs, id)
	}
	enter := func(id string, at time.Time) {
		if err := vs.RecordCheckpoint(ctx, id, visit.CheckpointEntry,
			visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: at}); err != nil {
			t.Fatalf("entry %s: %v", id, err)
		}
	}
	enter("early", t0.Add(time.Hour))
	enter("late", t0.Add(2*time.Hour))
	enter("gone", t0.Add(90*time.Minute))
	if err := vs.RecordCheckpoint(ctx, "gone", visit.CheckpointExit,
		visit.Checkpoint{Gate: "Main", Agent: "guard-1", At: t0.Add(3 * time.Hour)}); err != nil {
		t.Fatalf("exit: %v", err)
	}

	got, err := vs.OnCampus(ctx)
	if err != nil {
		t.Fatalf("OnCampus: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 on campus, got %d", len(got))
	}
	if got[0].ID != "late" || got[1].ID != "early" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}
