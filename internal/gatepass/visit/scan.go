package visit

import "time"

// Action is what a gate device asked for.
type Action string

const (
	ActionEntry       Action = "entry"
	ActionExit        Action = "exit"
	ActionScanAttempt Action = "scan_attempt"
)

func (a Action) Valid() bool {
	switch a {
	case ActionEntry, ActionExit, ActionScanAttempt:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Reason is the fixed enumeration of scan failure causes. The gate device
// shows a different instruction for each, so there is no catch-all value.
type Reason string

const (
	ReasonMalformed      Reason = "malformed"
	ReasonUnparsable     Reason = "unparsable"
	ReasonExpired        Reason = "expired"
	ReasonTampered       Reason = "tampered"
	ReasonNotFound       Reason = "not_found"
	ReasonNotApproved    Reason = "not_approved"
	ReasonAlreadyEntered Reason = "already_entered"
	ReasonAlreadyExited  Reason = "already_exited"
	ReasonNoEntryRecord  Reason = "no_entry_record"
)

var allReasons = []Reason{
	ReasonMalformed,
	ReasonUnparsable,
	ReasonExpired,
	ReasonTampered,
	ReasonNotFound,
	ReasonNotApproved,
	ReasonAlreadyEntered,
	ReasonAlreadyExited,
	ReasonNoEntryRecord,
}

// Reasons returns every failure reason in a stable order.
func Reasons() []Reason {
	out := make([]Reason, len(allReasons))
	copy(out, allReasons)
	return out
}

func (r Reason) Valid() bool {
	for _, v := range allReasons {
		if r == v {
			return true
		}
	}
	return false
}

// TokenProblem reports whether the reason comes from the credential itself
// rather than from the visit's state.
func (r Reason) TokenProblem() bool {
	switch r {
	case ReasonMalformed, ReasonUnparsable, ReasonExpired, ReasonTampered:
		return true
	}
	return false
}

// ScanLogEntry is one append-only audit row. RequestID is empty when the
// token could not be decoded far enough to identify a request.
type ScanLogEntry struct {
	ID        string
	RequestID string
	Agent     string
	Action    Action
	Gate      string
	ScannedAt time.Time
	Outcome   Outcome
	Reason    Reason
}
