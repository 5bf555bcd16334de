// Package visit holds the authoritative visit request record and the scan
// log vocabulary shared by the pass engine, the state machine and the stores.
package visit

import (
	"errors"
	"time"
)

// ErrInvalidStateTransition is returned when an approval decision is applied
// to a request that is no longer pending.
var ErrInvalidStateTransition = errors.New("invalid state transition")

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Pass is the credential bound to a request on approval.
type Pass struct {
	Token         string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	ValidityHours int
	ApprovedBy    string
}

// Checkpoint records one side of a visit: who scanned, where and when.
type Checkpoint struct {
	Gate  string
	Agent string
	At    time.Time
}

// CheckpointKind names which checkpoint a transition sets.
type CheckpointKind string

const (
	CheckpointEntry CheckpointKind = "entry"
	CheckpointExit  CheckpointKind = "exit"
)

// Request is the authoritative visit request record.
//
// Invariants maintained by the state machine and the stores:
//   - Pass != nil iff Status == StatusApproved
//   - Exit != nil implies Entry != nil
//   - Entry and Exit are written at most once
type Request struct {
	ID            string
	RequesterID   string
	RequesterName string
	Department    string
	Purpose       string
	VisitDate     time.Time
	TimeSlot      string
	Status        Status
	Pass          *Pass
	Entry         *Checkpoint
	Exit          *Checkpoint
	Remarks       string
	DecidedBy     string
	DecidedAt     *time.Time
	CreatedAt     time.Time
}

// OnCampus reports whether the visitor has entered and not yet left.
func (r Request) OnCampus() bool {
	return r.Entry != nil && r.Exit == nil
}

// Departed reports whether the visit window is complete.
func (r Request) Departed() bool {
	return r.Entry != nil && r.Exit != nil
}

// Clone returns a deep copy so callers can derive a new record without
// aliasing the pointers of the original.
func (r Request) Clone() Request {
	out := r
	if r.Pass != nil {
		p := *r.Pass
		out.Pass = &p
	}
	if r.Entry != nil {
		e := *r.Entry
		out.Entry = &e
	}
	if r.Exit != nil {
		e := *r.Exit
		out.Exit = &e
	}
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}
	return out
}
