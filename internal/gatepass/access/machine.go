// Package access is the per-request entry/exit state machine.
//
// Apply is a pure function: it takes the current authoritative record and a
// scan event and returns the record that should be persisted plus the
// outcome to log. It never touches storage; making the new record durable
// (with a conditional update on the field being set) is the caller's job.
package access

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// Action is what the gate device asked to do with the pass.
type Action string

const (
	ActionEntry Action = "entry"
	ActionExit  Action = "exit"
	// ActionVerify inspects a pass without moving the visitor through
	// the gate. It is logged as a scan attempt.
	ActionVerify Action = "verify"
)

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionEntry, ActionExit, ActionVerify:
		return a, nil
	}
	return "", fmt.Errorf("unknown scan action %q", s)
}

// LogAction maps the requested action onto the audit vocabulary.
func (a Action) LogAction() visit.Action {
	switch a {
	case ActionEntry:
		return visit.ActionEntry
	case ActionExit:
		return visit.ActionExit
	}
	return visit.ActionScanAttempt
}

// Event is one scan presented to the state machine. Token is the exact
// string the device read, compared against the pass bound to the record.
type Event struct {
	Action Action
	Gate   string
	Agent  string
	Token  string
	At     time.Time
}

// Decision is the result of applying an Event. When Changed is true,
// Record carries the new Entry or Exit named by Checkpoint and must be
// persisted; otherwise Record is the input unchanged.
type Decision struct {
	Record     visit.Request
	Outcome    visit.Outcome
	Reason     visit.Reason
	Changed    bool
	Checkpoint visit.CheckpointKind
	CanEnter   bool
	CanExit    bool
}

func (d Decision) Success() bool { return d.Outcome == visit.OutcomeSuccess }

// Apply decides a scan against rec. Checks run in a fixed order so the same
// record and event always produce the same reason:
//
//	status -> stored pass expiry -> token binding -> entry/exit ordering
func Apply(rec visit.Request, ev Event) (Decision, error) {
	switch ev.Action {
	case ActionEntry, ActionExit, ActionVerify:
	default:
		return Decision{}, fmt.Errorf("unknown scan action %q", ev.Action)
	}

	if rec.Status != visit.StatusApproved || rec.Pass == nil {
		return failed(rec, visit.ReasonNotApproved), nil
	}
	if ev.At.After(rec.Pass.ExpiresAt) {
		return failed(rec, visit.ReasonExpired), nil
	}
	if subtle.ConstantTimeCompare([]byte(ev.Token), []byte(rec.Pass.Token)) != 1 {
		return failed(rec, visit.ReasonTampered), nil
	}

	cp := visit.Checkpoint{Gate: ev.Gate, Agent: ev.Agent, At: ev.At}

	switch ev.Action {
	case ActionEntry:
		if rec.Entry != nil {
			return failed(rec, visit.ReasonAlreadyEntered), nil
		}
		next := rec.Clone()
		next.Entry = &cp
		return changed(next, visit.CheckpointEntry), nil

	case ActionExit:
		if rec.Entry == nil {
			return failed(rec, visit.ReasonNoEntryRecord), nil
		}
		if rec.Exit != nil {
			return failed(rec, visit.ReasonAlreadyExited), nil
		}
		next := rec.Clone()
		next.Exit = &cp
		return changed(next, visit.CheckpointExit), nil
	}

	d := Decision{Record: rec, Outcome: visit.OutcomeSuccess}
	d.CanEnter, d.CanExit = movement(rec)
	return d, nil
}

func failed(rec visit.Request, reason visit.Reason) Decision {
	d := Decision{Record: rec, Outcome: visit.OutcomeFailed, Reason: reason}
	if rec.Status == visit.StatusApproved && rec.Pass != nil && !reason.TokenProblem() {
		d.CanEnter, d.CanExit = movement(rec)
	}
	return d
}

func changed(next visit.Request, kind visit.CheckpointKind) Decision {
	d := Decision{
		Record:     next,
		Outcome:    visit.OutcomeSuccess,
		Changed:    true,
		Checkpoint: kind,
	}
	d.CanEnter, d.CanExit = movement(next)
	return d
}

func movement(rec visit.Request) (canEnter, canExit bool) {
	return rec.Entry == nil, rec.OnCampus()
}
