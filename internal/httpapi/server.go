package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/auth"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

type Dependencies struct {
	Logger   *zap.Logger
	Addr     string
	Verifier *auth.Verifier
	Requests *service.RequestService
	Issuer   *service.Issuer
	Scanner  *service.ScanService
	Reports  *service.Reports
	Gates    *service.GateRegistry
	// Gatherer backs /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     chi.Router
	requests   *service.RequestService
	issuer     *service.Issuer
	scanner    *service.ScanService
	reports    *service.Reports
	gates      *service.GateRegistry
	now        func() time.Time
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	s := &Server{
		logger:   logger,
		router:   r,
		requests: d.Requests,
		issuer:   d.Issuer,
		scanner:  d.Scanner,
		reports:  d.Reports,
		gates:    d.Gates,
		now:      d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authenticate(d.Verifier))

		r.With(requireRole(auth.RoleSecurity)).Post("/scan", s.handleScan)

		r.With(requireRole(auth.RoleAdmin)).Post("/requests", s.handleSubmit)
		r.Route("/requests/{id}", func(r chi.Router) {
			r.With(requireRole(auth.RoleAdmin, auth.RoleSecurity)).Get("/", s.handleGetRequest)
			r.Group(func(r chi.Router) {
				r.Use(requireRole(auth.RoleAdmin))
				r.Post("/approve", s.handleApprove)
				r.Post("/reject", s.handleReject)
				r.Get("/pass.png", s.handlePassQR)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(auth.RoleAdmin, auth.RoleSecurity))
			r.Get("/on-campus", s.handleOnCampus)
			r.Get("/scans", s.handleScanHistory)
			r.Get("/scans/summary", s.handleScanSummary)
			r.Get("/gates", s.handleGates)
		})
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Scan ─────────────────────────────────────────────────────────────────────

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	asProto := wantsProtobuf(r)

	var req types.ScanRequest
	if asProto {
		parsed, err := decodeScanProto(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", err.Error())
			return
		}
		req = parsed
	} else if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.scanner.Scan(r.Context(), service.ScanInput{
		Token:  req.Token,
		Gate:   req.Gate,
		Action: req.Action,
		Agent:  id.Agent,
	})
	if err != nil {
		s.writeServiceError(w, "scan", err)
		return
	}

	resp := types.FromScanResult(res)
	status := scanStatus(res)
	if asProto {
		writeScanProto(w, status, resp)
		return
	}
	writeJSON(w, status, resp)
}

// scanStatus maps a scan result onto an HTTP status. The reason code in
// the body is what the gate device acts on.
func scanStatus(res service.ScanResult) int {
	switch {
	case res.Success():
		return http.StatusOK
	case res.Reason.TokenProblem():
		return http.StatusUnprocessableEntity
	case res.Reason == visit.ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}

// ── Shared ───────────────────────────────────────────────────────────────────

// decodeJSON reads a bounded, strict JSON body. It writes the 400 itself
// and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", zap.Error(err))
		writeError(w, status, code, "unexpected server error")
		return
	}
	writeError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidGate):
		return http.StatusBadRequest, "invalid_gate"
	case errors.Is(err, service.ErrInvalidAction):
		return http.StatusBadRequest, "invalid_action"
	case errors.Is(err, service.ErrInvalidAgent):
		return http.StatusBadRequest, "invalid_agent"
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrRemarksRequired):
		return http.StatusBadRequest, "remarks_required"
	case errors.Is(err, service.ErrInvalidValidity):
		return http.StatusBadRequest, "invalid_validity"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, visit.ErrInvalidStateTransition):
		return http.StatusConflict, "invalid_state_transition"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
