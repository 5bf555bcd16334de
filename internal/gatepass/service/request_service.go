package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// SubmitInput is the minimal intake for a visit request.
type SubmitInput struct {
	RequesterID   string
	RequesterName string
	Department    string
	Purpose       string
	VisitDate     time.Time
	TimeSlot      string
}

type RequestService struct {
	visits store.VisitStore
	now    func() time.Time
}

func NewRequestService(visits store.VisitStore) *RequestService {
	return &RequestService{visits: visits, now: time.Now}
}

// Submit records a new pending request.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (visit.Request, error) {
	rec := visit.Request{
		ID:            uuid.NewString(),
		RequesterID:   strings.TrimSpace(in.RequesterID),
		RequesterName: strings.TrimSpace(in.RequesterName),
		Department:    strings.TrimSpace(in.Department),
		Purpose:       strings.TrimSpace(in.Purpose),
		VisitDate:     in.VisitDate.UTC(),
		TimeSlot:      strings.TrimSpace(in.TimeSlot),
		Status:        visit.StatusPending,
		CreatedAt:     s.now().UTC().Truncate(time.Millisecond),
	}

	var missing []string
	if rec.RequesterID == "" {
		missing = append(missing, "requester_id")
	}
	if rec.Department == "" {
		missing = append(missing, "department")
	}
	if rec.Purpose == "" {
		missing = append(missing, "purpose")
	}
	if len(missing) > 0 {
		return visit.Request{}, fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}

	if err := s.visits.CreateRequest(ctx, rec); err != nil {
		return visit.Request{}, err
	}
	return rec, nil
}

func (s *RequestService) Get(ctx context.Context, id string) (visit.Request, error) {
	return s.visits.GetRequest(ctx, strings.TrimSpace(id))
}
