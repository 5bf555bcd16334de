package access_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/access"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

func logRow(req string, action visit.Action, outcome visit.Outcome, at time.Time) visit.ScanLogEntry {
	return visit.ScanLogEntry{
		RequestID: req,
		Agent:     "guard-1",
		Action:    action,
		Gate:      "Main",
		ScannedAt: at,
		Outcome:   outcome,
	}
}

func TestReplay_ReconstructsPresence(t *testing.T) {
	rows := []visit.ScanLogEntry{
		// newest first, as the log queries return them
		logRow("a", visit.ActionExit, visit.OutcomeSuccess, base.Add(3*time.Hour)),
		logRow("a", visit.ActionEntry, visit.OutcomeFailed, base.Add(2*time.Hour)),
		logRow("b", visit.ActionEntry, visit.OutcomeSuccess, base.Add(90*time.Minute)),
		logRow("a", visit.ActionEntry, visit.OutcomeSuccess, base.Add(time.Hour)),
		logRow("", visit.ActionScanAttempt, visit.OutcomeFailed, base),
	}

	got, err := access.Replay(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.False(t, got["a"].OnCampus())
	assert.True(t, got["a"].Exit.At.Equal(base.Add(3*time.Hour)))
	assert.True(t, got["b"].OnCampus())
}

func TestReplay_MatchesStateMachine(t *testing.T) {
	rec := approvedRequest()
	var rows []visit.ScanLogEntry

	events := []access.Event{
		scan(access.ActionExit, "Main", base.Add(time.Minute)),
		scan(access.ActionEntry, "Main", base.Add(2*time.Minute)),
		scan(access.ActionEntry, "East", base.Add(3*time.Minute)),
		scan(access.ActionVerify, "East", base.Add(4*time.Minute)),
		scan(access.ActionExit, "West", base.Add(5*time.Minute)),
		scan(access.ActionExit, "West", base.Add(6*time.Minute)),
	}
	for _, ev := range events {
		d, err := access.Apply(rec, ev)
		require.NoError(t, err)
		rows = append(rows, visit.ScanLogEntry{
			RequestID: rec.ID,
			Agent:     ev.Agent,
			Action:    ev.Action.LogAction(),
			Gate:      ev.Gate,
			ScannedAt: ev.At,
			Outcome:   d.Outcome,
			Reason:    d.Reason,
		})
		if d.Changed {
			rec = d.Record
		}
	}

	got, err := access.Replay(rows)
	require.NoError(t, err)
	p := got[rec.ID]
	require.NotNil(t, p.Entry)
	require.NotNil(t, p.Exit)
	assert.Equal(t, *rec.Entry, *p.Entry)
	assert.Equal(t, *rec.Exit, *p.Exit)
}

func TestReplay_DetectsDoubleEntry(t *testing.T) {
	rows := []visit.ScanLogEntry{
		logRow("a", visit.ActionEntry, visit.OutcomeSuccess, base),
		logRow("a", visit.ActionEntry, visit.OutcomeSuccess, base.Add(time.Minute)),
	}
	_, err := access.Replay(rows)
	assert.ErrorIs(t, err, access.ErrInconsistentLog)
}

func TestReplay_DetectsExitWithoutEntry(t *testing.T) {
	rows := []visit.ScanLogEntry{
		logRow("a", visit.ActionExit, visit.OutcomeSuccess, base),
	}
	_, err := access.Replay(rows)
	assert.ErrorIs(t, err, access.ErrInconsistentLog)
}

func TestReplay_DetectsExitBeforeEntry(t *testing.T) {
	rows := []visit.ScanLogEntry{
		logRow("a", visit.ActionEntry, visit.OutcomeSuccess, base.Add(time.Hour)),
		logRow("a", visit.ActionExit, visit.OutcomeSuccess, base),
	}
	_, err := access.Replay(rows)
	assert.ErrorIs(t, err, access.ErrInconsistentLog)
}
