package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/metrics"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/pass"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// ValidityPolicy bounds pass lifetimes in whole hours.
type ValidityPolicy struct {
	DefaultHours int
	MinHours     int
	MaxHours     int
}

// Resolve returns the default for 0 and rejects anything outside
// [MinHours, MaxHours]. Out-of-range values are never clamped.
func (p ValidityPolicy) Resolve(hours int) (int, error) {
	if hours == 0 {
		return p.DefaultHours, nil
	}
	if hours < p.MinHours || hours > p.MaxHours {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidValidity, hours, p.MinHours, p.MaxHours)
	}
	return hours, nil
}

type IssueInput struct {
	RequestID     string
	ValidityHours int // 0 selects the configured default
	ApprovedBy    string
	Remarks       string
}

type IssueResult struct {
	Request visit.Request
	Token   string
}

// Issuer approves or rejects pending requests. Approval binds exactly one
// pass to the request; an approved request is never issued again.
type Issuer struct {
	visits  store.VisitStore
	codec   *pass.Codec
	policy  ValidityPolicy
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewIssuer(visits store.VisitStore, codec *pass.Codec, policy ValidityPolicy, logger *zap.Logger, m *metrics.Metrics) *Issuer {
	return &Issuer{
		visits:  visits,
		codec:   codec,
		policy:  policy,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Issue(ctx context.Context, in IssueInput) (IssueResult, error) {
	hours, err := i.policy.Resolve(in.ValidityHours)
	if err != nil {
		return IssueResult{}, err
	}

	rec, err := i.visits.GetRequest(ctx, strings.TrimSpace(in.RequestID))
	if err != nil {
		return IssueResult{}, err
	}
	if rec.Status != visit.StatusPending {
		return IssueResult{}, fmt.Errorf("%w: request %s is %s", visit.ErrInvalidStateTransition, rec.ID, rec.Status)
	}

	// Millisecond precision so the stored expiry and the one sealed in
	// the token agree exactly.
	issuedAt := i.now().UTC().Truncate(time.Millisecond)
	expiresAt := issuedAt.Add(time.Duration(hours) * time.Hour)

	token, err := i.codec.Encode(pass.Payload{
		RequestID:   rec.ID,
		RequesterID: rec.RequesterID,
		Department:  rec.Department,
		VisitDate:   rec.VisitDate,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
		Checksum:    i.codec.Checksum(rec.ID),
	})
	if err != nil {
		return IssueResult{}, fmt.Errorf("encode pass: %w", err)
	}

	next := rec.Clone()
	next.Status = visit.StatusApproved
	next.Pass = &visit.Pass{
		Token:         token,
		IssuedAt:      issuedAt,
		ExpiresAt:     expiresAt,
		ValidityHours: hours,
		ApprovedBy:    in.ApprovedBy,
	}
	if in.Remarks != "" {
		next.Remarks = in.Remarks
	}
	next.DecidedBy = in.ApprovedBy
	next.DecidedAt = &issuedAt

	if err := i.visits.Decide(ctx, next); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return IssueResult{}, fmt.Errorf("%w: request %s already decided", visit.ErrInvalidStateTransition, rec.ID)
		}
		return IssueResult{}, err
	}

	i.metrics.IncrementIssued()
	i.logger.Info("pass issued",
		zap.String("request_id", rec.ID),
		zap.String("approved_by", in.ApprovedBy),
		zap.Int("validity_hours", hours),
		zap.Time("expires_at", expiresAt),
	)

	return IssueResult{Request: next, Token: token}, nil
}

// Reject closes a pending request without a pass. Remarks are mandatory so
// the requester learns why.
func (i *Issuer) Reject(ctx context.Context, requestID, by, remarks string) (visit.Request, error) {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return visit.Request{}, ErrRemarksRequired
	}

	rec, err := i.visits.GetRequest(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return visit.Request{}, err
	}
	if rec.Status != visit.StatusPending {
		return visit.Request{}, fmt.Errorf("%w: request %s is %s", visit.ErrInvalidStateTransition, rec.ID, rec.Status)
	}

	decidedAt := i.now().UTC().Truncate(time.Millisecond)
	next := rec.Clone()
	next.Status = visit.StatusRejected
	next.Pass = nil
	next.Remarks = remarks
	next.DecidedBy = by
	next.DecidedAt = &decidedAt

	if err := i.visits.Decide(ctx, next); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return visit.Request{}, fmt.Errorf("%w: request %s already decided", visit.ErrInvalidStateTransition, rec.ID)
		}
		return visit.Request{}, err
	}

	i.metrics.IncrementRejected()
	i.logger.Info("request rejected", zap.String("request_id", rec.ID), zap.String("by", by))
	return next, nil
}
