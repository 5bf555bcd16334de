package httpapi

import (
	"net/http"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/auth"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
)

func (s *Server) handleOnCampus(w http.ResponseWriter, r *http.Request) {
	recs, err := s.reports.OnCampus(r.Context())
	if err != nil {
		s.writeServiceError(w, "on campus", err)
		return
	}

	resp := types.OnCampusResponse{Count: len(recs), Visitors: make([]types.RequestView, 0, len(recs))}
	for _, rec := range recs {
		resp.Visitors = append(resp.Visitors, types.FromRequest(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	f, err := scanFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	rows, err := s.reports.History(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, "scan history", err)
		return
	}

	f = f.Normalized()
	resp := types.ScanHistoryResponse{Scans: make([]types.ScanLogView, 0, len(rows)), Limit: f.Limit, Offset: f.Offset}
	for _, e := range rows {
		resp.Scans = append(resp.Scans, types.FromScanLogEntry(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScanSummary counts scans since a point in time. Security agents
// asking without an agent filter get their own counts.
func (s *Server) handleScanSummary(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	q := r.URL.Query()

	agent := q.Get("agent")
	if agent == "" && id.Role == auth.RoleSecurity {
		agent = id.Agent
	}
	since, err := sinceFromQuery(q, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	sum, err := s.reports.Summary(r.Context(), agent, since)
	if err != nil {
		s.writeServiceError(w, "scan summary", err)
		return
	}
	writeJSON(w, http.StatusOK, types.FromScanSummary(agent, since, sum))
}

func (s *Server) handleGates(w http.ResponseWriter, r *http.Request) {
	gates, err := s.gates.List(r.Context())
	if err != nil {
		s.writeServiceError(w, "list gates", err)
		return
	}

	out := make([]types.GateView, 0, len(gates))
	for _, g := range gates {
		out = append(out, types.FromGateRecord(g))
	}
	writeJSON(w, http.StatusOK, out)
}
