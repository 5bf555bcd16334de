// Package types holds the wire shapes shared by the HTTP and gRPC
// transports.
package types

import (
	"time"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

type ScanRequest struct {
	Token  string `json:"token"`
	Gate   string `json:"gate"`
	Action string `json:"action"`
}

type ScanResponse struct {
	OK         bool         `json:"ok"`
	Outcome    string       `json:"outcome"`
	Reason     string       `json:"reason,omitempty"`
	ScanID     string       `json:"scan_id"`
	Action     string       `json:"action"`
	Gate       string       `json:"gate"`
	RequestID  string       `json:"request_id,omitempty"`
	Request    *RequestView `json:"request,omitempty"`
	CanEnter   bool         `json:"can_enter"`
	CanExit    bool         `json:"can_exit"`
	ServerTime string       `json:"server_time"`
}

func FromScanResult(r service.ScanResult) ScanResponse {
	resp := ScanResponse{
		OK:         r.Success(),
		Outcome:    string(r.Outcome),
		Reason:     string(r.Reason),
		ScanID:     r.ScanID,
		Action:     string(r.Action),
		Gate:       r.Gate,
		RequestID:  r.RequestID,
		CanEnter:   r.CanEnter,
		CanExit:    r.CanExit,
		ServerTime: r.ScannedAt.Format(time.RFC3339Nano),
	}
	if r.Request != nil {
		v := FromRequest(*r.Request)
		resp.Request = &v
	}
	return resp
}

type ScanLogView struct {
	ScanID    string `json:"scan_id"`
	RequestID string `json:"request_id,omitempty"`
	Agent     string `json:"agent"`
	Action    string `json:"action"`
	Gate      string `json:"gate"`
	ScannedAt string `json:"scanned_at"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}

func FromScanLogEntry(e visit.ScanLogEntry) ScanLogView {
	return ScanLogView{
		ScanID:    e.ID,
		RequestID: e.RequestID,
		Agent:     e.Agent,
		Action:    string(e.Action),
		Gate:      e.Gate,
		ScannedAt: e.ScannedAt.Format(time.RFC3339Nano),
		Outcome:   string(e.Outcome),
		Reason:    string(e.Reason),
	}
}

type ScanHistoryResponse struct {
	Scans  []ScanLogView `json:"scans"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type ScanSummaryResponse struct {
	Agent    string `json:"agent,omitempty"`
	Since    string `json:"since"`
	Total    int    `json:"total_scans"`
	Entries  int    `json:"entries"`
	Exits    int    `json:"exits"`
	Failures int    `json:"failures"`
}

func FromScanSummary(agent string, since time.Time, s store.ScanSummary) ScanSummaryResponse {
	return ScanSummaryResponse{
		Agent:    agent,
		Since:    since.UTC().Format(time.RFC3339),
		Total:    s.Total,
		Entries:  s.Entries,
		Exits:    s.Exits,
		Failures: s.Failures,
	}
}
