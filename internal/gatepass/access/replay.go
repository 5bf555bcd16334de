package access

import (
	"errors"
	"fmt"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

var ErrInconsistentLog = errors.New("scan log is inconsistent")

// Presence is the entry/exit state of one request as reconstructed from
// the scan log.
type Presence struct {
	Entry *visit.Checkpoint
	Exit  *visit.Checkpoint
}

func (p Presence) OnCampus() bool { return p.Entry != nil && p.Exit == nil }

// Replay rebuilds per-request presence from scan log rows in any order.
// Only successful entry and exit rows move state. A second successful
// entry or exit for the same request, or an exit that precedes its entry,
// means the log contradicts the state machine and yields
// ErrInconsistentLog.
func Replay(entries []visit.ScanLogEntry) (map[string]Presence, error) {
	out := make(map[string]Presence)

	for _, e := range entries {
		if e.Outcome != visit.OutcomeSuccess || e.RequestID == "" {
			continue
		}
		p := out[e.RequestID]
		cp := &visit.Checkpoint{Gate: e.Gate, Agent: e.Agent, At: e.ScannedAt}

		switch e.Action {
		case visit.ActionEntry:
			if p.Entry != nil {
				return nil, fmt.Errorf("%w: request %s entered twice", ErrInconsistentLog, e.RequestID)
			}
			p.Entry = cp
		case visit.ActionExit:
			if p.Exit != nil {
				return nil, fmt.Errorf("%w: request %s exited twice", ErrInconsistentLog, e.RequestID)
			}
			p.Exit = cp
		default:
			continue
		}
		out[e.RequestID] = p
	}

	for id, p := range out {
		if p.Exit == nil {
			continue
		}
		if p.Entry == nil {
			return nil, fmt.Errorf("%w: request %s exited without entry", ErrInconsistentLog, id)
		}
		if p.Exit.At.Before(p.Entry.At) {
			return nil, fmt.Errorf("%w: request %s exited before entry", ErrInconsistentLog, id)
		}
	}

	return out, nil
}
