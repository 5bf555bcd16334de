package types

import (
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

// SubmitRequest is the intake body. VisitDate is YYYY-MM-DD.
type SubmitRequest struct {
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name,omitempty"`
	Department    string `json:"department"`
	Purpose       string `json:"purpose"`
	VisitDate     string `json:"visit_date,omitempty"`
	TimeSlot      string `json:"time_slot,omitempty"`
}

type ApproveRequest struct {
	ValidityHours int    `json:"validity_hours,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
}

type ApproveResponse struct {
	RequestID     string `json:"request_id"`
	Token         string `json:"token"`
	IssuedAt      string `json:"issued_at"`
	ExpiresAt     string `json:"expires_at"`
	ValidityHours int    `json:"validity_hours"`
}

type RejectRequest struct {
	Remarks string `json:"remarks"`
}

type CheckpointView struct {
	Gate  string `json:"gate"`
	Agent string `json:"agent"`
	At    string `json:"at"`
}

// PassView describes the bound pass without the token itself.
type PassView struct {
	IssuedAt      string `json:"issued_at"`
	ExpiresAt     string `json:"expires_at"`
	ValidityHours int    `json:"validity_hours"`
	ApprovedBy    string `json:"approved_by,omitempty"`
}

type RequestView struct {
	ID            string          `json:"id"`
	RequesterID   string          `json:"requester_id"`
	RequesterName string          `json:"requester_name,omitempty"`
	Department    string          `json:"department"`
	Purpose       string          `json:"purpose"`
	VisitDate     string          `json:"visit_date,omitempty"`
	TimeSlot      string          `json:"time_slot,omitempty"`
	Status        string          `json:"status"`
	Pass          *PassView       `json:"pass,omitempty"`
	Entry         *CheckpointView `json:"entry,omitempty"`
	Exit          *CheckpointView `json:"exit,omitempty"`
	OnCampus      bool            `json:"on_campus"`
	Remarks       string          `json:"remarks,omitempty"`
	DecidedBy     string          `json:"decided_by,omitempty"`
	DecidedAt     string          `json:"decided_at,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

func FromRequest(r visit.Request) RequestView {
	v := RequestView{
		ID:            r.ID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		Department:    r.Department,
		Purpose:       r.Purpose,
		TimeSlot:      r.TimeSlot,
		Status:        string(r.Status),
		OnCampus:      r.OnCampus(),
		Remarks:       r.Remarks,
		DecidedBy:     r.DecidedBy,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339Nano),
	}
	if !r.VisitDate.IsZero() {
		v.VisitDate = r.VisitDate.Format(time.DateOnly)
	}
	if r.DecidedAt != nil {
		v.DecidedAt = r.DecidedAt.Format(time.RFC3339Nano)
	}
	if r.Pass != nil {
		v.Pass = &PassView{
			IssuedAt:      r.Pass.IssuedAt.Format(time.RFC3339Nano),
			ExpiresAt:     r.Pass.ExpiresAt.Format(time.RFC3339Nano),
			ValidityHours: r.Pass.ValidityHours,
			ApprovedBy:    r.Pass.ApprovedBy,
		}
	}
	v.Entry = checkpointView(r.Entry)
	v.Exit = checkpointView(r.Exit)
	return v
}

func checkpointView(c *visit.Checkpoint) *CheckpointView {
	if c == nil {
		return nil
	}
	return &CheckpointView{Gate: c.Gate, Agent: c.Agent, At: c.At.Format(time.RFC3339Nano)}
}

type OnCampusResponse struct {
	Count    int           `json:"count"`
	Visitors []RequestView `json:"visitors"`
}

type GateView struct {
	Gate       string `json:"gate"`
	Enabled    bool   `json:"enabled"`
	LastScanAt string `json:"last_scan_at,omitempty"`
}

func FromGateRecord(g store.GateRecord) GateView {
	v := GateView{Gate: g.GateID, Enabled: g.Enabled}
	if g.LastScanAt != nil {
		v.LastScanAt = g.LastScanAt.Format(time.RFC3339Nano)
	}
	return v
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
