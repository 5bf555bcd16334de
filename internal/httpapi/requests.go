package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/auth"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/pass"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := service.SubmitInput{
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		Department:    req.Department,
		Purpose:       req.Purpose,
		TimeSlot:      req.TimeSlot,
	}
	if strings.TrimSpace(req.VisitDate) != "" {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(req.VisitDate))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("visit_date %q is not YYYY-MM-DD", req.VisitDate))
			return
		}
		in.VisitDate = d
	}

	rec, err := s.requests.Submit(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, "submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, types.FromRequest(rec))
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.requests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, "get request", err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromRequest(rec))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req types.ApproveRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	id, _ := auth.FromContext(r.Context())

	res, err := s.issuer.Issue(r.Context(), service.IssueInput{
		RequestID:     chi.URLParam(r, "id"),
		ValidityHours: req.ValidityHours,
		ApprovedBy:    id.Agent,
		Remarks:       req.Remarks,
	})
	if err != nil {
		s.writeServiceError(w, "approve", err)
		return
	}

	p := res.Request.Pass
	writeJSON(w, http.StatusOK, types.ApproveResponse{
		RequestID:     res.Request.ID,
		Token:         res.Token,
		IssuedAt:      p.IssuedAt.Format(time.RFC3339Nano),
		ExpiresAt:     p.ExpiresAt.Format(time.RFC3339Nano),
		ValidityHours: p.ValidityHours,
	})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req types.RejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, _ := auth.FromContext(r.Context())

	rec, err := s.issuer.Reject(r.Context(), chi.URLParam(r, "id"), id.Agent, req.Remarks)
	if err != nil {
		s.writeServiceError(w, "reject", err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromRequest(rec))
}

// handlePassQR renders the bound token as a printable QR code.
func (s *Server) handlePassQR(w http.ResponseWriter, r *http.Request) {
	rec, err := s.requests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, "pass qr", err)
		return
	}
	if rec.Pass == nil {
		writeError(w, http.StatusConflict, "no_pass", "request has no issued pass")
		return
	}

	png, err := pass.QRCodePNG(rec.Pass.Token)
	if err != nil {
		s.logger.Error("render pass qr", zap.String("request_id", rec.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
