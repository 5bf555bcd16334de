package access_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/access"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

const testToken = "0011:aabbcc"

var base = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func approvedRequest() visit.Request {
	return visit.Request{
		ID:          "req-1",
		RequesterID: "visitor-1",
		Department:  "Library",
		Status:      visit.StatusApproved,
		Pass: &visit.Pass{
			Token:         testToken,
			IssuedAt:      base,
			ExpiresAt:     base.Add(24 * time.Hour),
			ValidityHours: 24,
		},
		CreatedAt: base.Add(-time.Hour),
	}
}

func scan(action access.Action, gate string, at time.Time) access.Event {
	return access.Event{Action: action, Gate: gate, Agent: "guard-7", Token: testToken, At: at}
}

func mustApply(t *testing.T, rec visit.Request, ev access.Event) access.Decision {
	t.Helper()
	d, err := access.Apply(rec, ev)
	require.NoError(t, err)
	return d
}

// ── Scenario: Main entry, East re-entry, Main exit, repeated exit ────────────

func TestApply_EntryExitScenario(t *testing.T) {
	rec := approvedRequest()

	d := mustApply(t, rec, scan(access.ActionEntry, "Main", base.Add(time.Hour)))
	require.True(t, d.Success())
	require.True(t, d.Changed)
	assert.Equal(t, visit.CheckpointEntry, d.Checkpoint)
	require.NotNil(t, d.Record.Entry)
	assert.Equal(t, "Main", d.Record.Entry.Gate)
	assert.Equal(t, "guard-7", d.Record.Entry.Agent)
	assert.Nil(t, rec.Entry, "input record must not be mutated")
	assert.False(t, d.CanEnter)
	assert.True(t, d.CanExit)
	rec = d.Record

	d = mustApply(t, rec, scan(access.ActionEntry, "East", base.Add(2*time.Hour)))
	assert.False(t, d.Success())
	assert.Equal(t, visit.ReasonAlreadyEntered, d.Reason)
	assert.False(t, d.Changed)
	assert.Equal(t, "Main", d.Record.Entry.Gate, "record unchanged by the rejected scan")

	d = mustApply(t, rec, scan(access.ActionExit, "Main", base.Add(3*time.Hour)))
	require.True(t, d.Success())
	assert.Equal(t, visit.CheckpointExit, d.Checkpoint)
	require.NotNil(t, d.Record.Exit)
	assert.Equal(t, "Main", d.Record.Exit.Gate)
	assert.False(t, d.Record.OnCampus())
	rec = d.Record

	d = mustApply(t, rec, scan(access.ActionExit, "Main", base.Add(4*time.Hour)))
	assert.Equal(t, visit.ReasonAlreadyExited, d.Reason)
	assert.False(t, d.Changed)
}

// ── Individual rules ─────────────────────────────────────────────────────────

func TestApply_ExitWithoutEntry(t *testing.T) {
	d := mustApply(t, approvedRequest(), scan(access.ActionExit, "Main", base.Add(time.Hour)))
	assert.Equal(t, visit.OutcomeFailed, d.Outcome)
	assert.Equal(t, visit.ReasonNoEntryRecord, d.Reason)
}

func TestApply_PendingRequest_NotApproved(t *testing.T) {
	rec := visit.Request{ID: "req-2", Status: visit.StatusPending}
	for _, a := range []access.Action{access.ActionEntry, access.ActionExit, access.ActionVerify} {
		d := mustApply(t, rec, scan(a, "Main", base))
		assert.Equal(t, visit.ReasonNotApproved, d.Reason, "action %s", a)
		assert.False(t, d.CanEnter)
		assert.False(t, d.CanExit)
	}
}

func TestApply_RejectedRequest_NotApproved(t *testing.T) {
	rec := visit.Request{ID: "req-3", Status: visit.StatusRejected}
	d := mustApply(t, rec, scan(access.ActionEntry, "Main", base))
	assert.Equal(t, visit.ReasonNotApproved, d.Reason)
}

func TestApply_StoredPassExpired(t *testing.T) {
	rec := approvedRequest()
	d := mustApply(t, rec, scan(access.ActionEntry, "Main", rec.Pass.ExpiresAt.Add(time.Second)))
	assert.Equal(t, visit.ReasonExpired, d.Reason)
	assert.False(t, d.Changed)
}

func TestApply_TokenNotBoundToRecord_Tampered(t *testing.T) {
	ev := scan(access.ActionEntry, "Main", base.Add(time.Hour))
	ev.Token = "ffff:000000"
	d := mustApply(t, approvedRequest(), ev)
	assert.Equal(t, visit.ReasonTampered, d.Reason)
	assert.False(t, d.Changed)
}

func TestApply_Verify_DoesNotMutate(t *testing.T) {
	rec := approvedRequest()
	d := mustApply(t, rec, scan(access.ActionVerify, "North", base.Add(time.Hour)))
	assert.True(t, d.Success())
	assert.False(t, d.Changed)
	assert.True(t, d.CanEnter)
	assert.False(t, d.CanExit)
	assert.Nil(t, d.Record.Entry)
}

func TestApply_UnknownAction(t *testing.T) {
	_, err := access.Apply(approvedRequest(), scan("teleport", "Main", base))
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	a, err := access.ParseAction(" Entry ")
	require.NoError(t, err)
	assert.Equal(t, access.ActionEntry, a)

	_, err = access.ParseAction("scan")
	assert.Error(t, err)

	assert.Equal(t, visit.ActionScanAttempt, access.ActionVerify.LogAction())
	assert.Equal(t, visit.ActionExit, access.ActionExit.LogAction())
}

// ── Idempotent failure ───────────────────────────────────────────────────────

func TestApply_ReplayedFailure_SameReasonNoMutation(t *testing.T) {
	d := mustApply(t, approvedRequest(), scan(access.ActionEntry, "Main", base.Add(time.Hour)))
	rec := d.Record

	for i := 0; i < 5; i++ {
		again := mustApply(t, rec, scan(access.ActionEntry, "East", base.Add(2*time.Hour)))
		assert.Equal(t, visit.ReasonAlreadyEntered, again.Reason)
		assert.False(t, again.Changed)
		assert.Equal(t, rec, again.Record)
	}
}

// ── Ordering invariant over random event sequences ──────────────────────────

func TestApply_OrderingInvariant_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(20261018))
	actions := []access.Action{access.ActionEntry, access.ActionExit, access.ActionVerify}

	for seq := 0; seq < 500; seq++ {
		rec := approvedRequest()
		entered, exited := false, false

		for step := 0; step < 8; step++ {
			a := actions[rng.Intn(len(actions))]
			d := mustApply(t, rec, scan(a, "Main", base.Add(time.Duration(step+1)*time.Minute)))

			switch {
			case a == access.ActionEntry && d.Success():
				require.False(t, entered, "second entry succeeded (seq %d step %d)", seq, step)
				entered = true
			case a == access.ActionExit && d.Success():
				require.True(t, entered, "exit succeeded without entry (seq %d step %d)", seq, step)
				require.False(t, exited, "second exit succeeded (seq %d step %d)", seq, step)
				exited = true
			}
			if d.Changed {
				rec = d.Record
			}
			if rec.Exit != nil {
				require.NotNil(t, rec.Entry)
			}
		}
	}
}
