package pass

import (
	"errors"
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

type Outcome string

const (
	OutcomeValid    Outcome = "valid"
	OutcomeExpired  Outcome = "expired"
	OutcomeTampered Outcome = "tampered"
	OutcomeInvalid  Outcome = "invalid"
)

// Result is the judgment on one presented token. Payload is set whenever
// the token decrypted, so callers can attribute expired and tampered
// attempts in the audit log; only OutcomeValid grants anything.
type Result struct {
	Outcome Outcome
	Reason  visit.Reason
	Payload *Payload
}

func (r Result) Valid() bool { return r.Outcome == OutcomeValid }

// Validator judges tokens against the clock. It performs no I/O; checks
// that need the stored record belong to the access state machine.
type Validator struct {
	codec *Codec
}

func NewValidator(c *Codec) *Validator {
	return &Validator{codec: c}
}

// Validate runs decode, expiry, then checksum, stopping at the first failure.
func (v *Validator) Validate(token string, now time.Time) Result {
	p, err := v.codec.Decode(token)
	if err != nil {
		reason := visit.ReasonMalformed
		var de *DecodeError
		if errors.As(err, &de) && de.Kind == DecodeUnparsable {
			reason = visit.ReasonUnparsable
		}
		return Result{Outcome: OutcomeInvalid, Reason: reason}
	}

	if now.After(p.ExpiresAt) {
		return Result{Outcome: OutcomeExpired, Reason: visit.ReasonExpired, Payload: &p}
	}

	if !v.codec.VerifyChecksum(p) {
		return Result{Outcome: OutcomeTampered, Reason: visit.ReasonTampered, Payload: &p}
	}

	return Result{Outcome: OutcomeValid, Payload: &p}
}
