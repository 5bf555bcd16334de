package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/access"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/metrics"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/pass"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// ScanInput is one scan as submitted by a gate device. Agent comes from the
// authenticated caller, never from the request body.
type ScanInput struct {
	Token  string
	Gate   string
	Action string
	Agent  string
}

// ScanResult is what the gate device shows. RequestID is set whenever the
// token decoded far enough to name a request; Request is set when the
// record was found.
type ScanResult struct {
	ScanID    string
	Action    access.Action
	Gate      string
	Outcome   visit.Outcome
	Reason    visit.Reason
	RequestID string
	Request   *visit.Request
	CanEnter  bool
	CanExit   bool
	ScannedAt time.Time
}

func (r ScanResult) Success() bool { return r.Outcome == visit.OutcomeSuccess }

// ScanService runs the scan pipeline:
//
//	validate token -> load record -> access.Apply -> record checkpoint + log row
//
// Every scan that names a known gate, a known action and an agent produces
// exactly one scan log row, whatever its outcome. A scan that moves a
// checkpoint writes the checkpoint and its row in one store call, so
// neither outlives the other.
type ScanService struct {
	visits    store.VisitStore
	scans     store.ScanLogStore
	gates     *GateRegistry
	validator *pass.Validator
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewScanService(
	visits store.VisitStore,
	scans store.ScanLogStore,
	gates *GateRegistry,
	validator *pass.Validator,
	logger *zap.Logger,
	m *metrics.Metrics,
) *ScanService {
	return &ScanService{
		visits:    visits,
		scans:     scans,
		gates:     gates,
		validator: validator,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (s *ScanService) WithClock(now func() time.Time) *ScanService {
	s.now = now
	return s
}

// Scan decides one scan. Scan failures come back as a result with a
// reason; the error is reserved for bad input and infrastructure faults,
// including a scan log row that did not persist. Nothing is recorded for
// a scan that returns an error.
func (s *ScanService) Scan(ctx context.Context, in ScanInput) (ScanResult, error) {
	start := time.Now()

	action, err := access.ParseAction(in.Action)
	if err != nil {
		return ScanResult{}, fmt.Errorf("%w: %q", ErrInvalidAction, in.Action)
	}
	gate := strings.TrimSpace(in.Gate)
	known, err := s.gates.IsKnown(ctx, gate)
	if err != nil {
		return ScanResult{}, fmt.Errorf("gate lookup: %w", err)
	}
	if !known {
		return ScanResult{}, fmt.Errorf("%w: %q", ErrInvalidGate, gate)
	}
	agent := strings.TrimSpace(in.Agent)
	if agent == "" {
		return ScanResult{}, ErrInvalidAgent
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	res := ScanResult{
		ScanID:    uuid.NewString(),
		Action:    action,
		Gate:      gate,
		ScannedAt: now,
	}

	// A blank token is a scan like any other and fails decode as malformed.
	if err := s.decide(ctx, &res, strings.TrimSpace(in.Token), agent); err != nil {
		s.logger.Error("scan not recorded",
			zap.String("scan_id", res.ScanID),
			zap.String("request_id", res.RequestID),
			zap.String("gate", gate),
			zap.Error(err),
		)
		return ScanResult{}, err
	}

	if err := s.gates.NoteScanned(ctx, gate, now); err != nil {
		s.logger.Warn("gate last-scan update failed", zap.String("gate", gate), zap.Error(err))
	}

	s.metrics.ObserveScan(string(action), string(res.Outcome), string(res.Reason), time.Since(start))
	s.logger.Info("scan",
		zap.String("scan_id", res.ScanID),
		zap.String("request_id", res.RequestID),
		zap.String("agent", agent),
		zap.String("gate", gate),
		zap.String("action", string(action)),
		zap.String("outcome", string(res.Outcome)),
		zap.String("reason", string(res.Reason)),
	)
	return res, nil
}

// decide fills the outcome of res and persists it. Only infrastructure
// errors are returned.
func (s *ScanService) decide(ctx context.Context, res *ScanResult, token, agent string) error {
	v := s.validator.Validate(token, res.ScannedAt)
	if v.Payload != nil {
		res.RequestID = v.Payload.RequestID
	}
	if !v.Valid() {
		res.Outcome, res.Reason = visit.OutcomeFailed, v.Reason
		return s.appendLog(ctx, logEntry(*res, agent))
	}

	rec, err := s.visits.GetRequest(ctx, res.RequestID)
	if errors.Is(err, store.ErrNotFound) {
		res.Outcome, res.Reason = visit.OutcomeFailed, visit.ReasonNotFound
		return s.appendLog(ctx, logEntry(*res, agent))
	}
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}

	return s.apply(ctx, res, rec, access.Event{
		Action: res.Action,
		Gate:   res.Gate,
		Agent:  agent,
		Token:  token,
		At:     res.ScannedAt,
	})
}

// apply runs the state machine and persists the outcome. A changed record
// goes to RecordScan together with its log row; anything else is a plain
// append. When a concurrent scan wins the conditional update, the record
// is reloaded and the event applied once more; the second pass sees the
// checkpoint as set and yields the already_* reason.
func (s *ScanService) apply(ctx context.Context, res *ScanResult, rec visit.Request, ev access.Event) error {
	for attempt := 0; ; attempt++ {
		d, err := access.Apply(rec, ev)
		if err != nil {
			return err
		}
		out := d.Record
		res.Request = &out
		res.Outcome, res.Reason = d.Outcome, d.Reason
		res.CanEnter, res.CanExit = d.CanEnter, d.CanExit

		entry := logEntry(*res, ev.Agent)
		if !d.Changed {
			return s.appendLog(ctx, entry)
		}

		cp := d.Record.Entry
		if d.Checkpoint == visit.CheckpointExit {
			cp = d.Record.Exit
		}
		err = s.visits.RecordScan(ctx, rec.ID, d.Checkpoint, *cp, entry)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt > 0 {
			return fmt.Errorf("record %s: %w", d.Checkpoint, err)
		}

		rec, err = s.visits.GetRequest(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("reload request: %w", err)
		}
	}
}

func (s *ScanService) appendLog(ctx context.Context, e visit.ScanLogEntry) error {
	if err := s.scans.Append(ctx, e); err != nil {
		return fmt.Errorf("append scan log: %w", err)
	}
	return nil
}

func logEntry(res ScanResult, agent string) visit.ScanLogEntry {
	return visit.ScanLogEntry{
		ID:        res.ScanID,
		RequestID: res.RequestID,
		Agent:     agent,
		Action:    res.Action.LogAction(),
		Gate:      res.Gate,
		ScannedAt: res.ScannedAt,
		Outcome:   res.Outcome,
		Reason:    res.Reason,
	}
}
