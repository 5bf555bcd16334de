package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/metrics"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/pass"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/service"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store/memory"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/visit"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// clock is a settable time source shared by the services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock    *clock
	codec    *pass.Codec
	visits   *memory.VisitStore
	scans    *memory.ScanLogStore
	metrics  *metrics.Metrics
	requests *service.RequestService
	issuer   *service.Issuer
	scanner  *service.ScanService
	reports  *service.Reports
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLog(t, nil)
}

// newFixtureWithLog lets a test substitute the scan log store. The visit
// store writes its checkpoint rows to the same log.
func newFixtureWithLog(t *testing.T, scanLog store.ScanLogStore) *fixture {
	t.Helper()

	codec, err := pass.NewCodec("service-test-secret")
	require.NoError(t, err)

	f := &fixture{
		clock:   &clock{t: t0},
		codec:   codec,
		scans:   memory.NewScanLogStore(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	if scanLog == nil {
		scanLog = f.scans
	}
	f.visits = memory.NewVisitStore(scanLog)

	logger := zap.NewNop()
	gates := service.NewGateRegistry(memory.NewGateStore([]string{"Main", "East", "West", "North", "South"}))
	policy := service.ValidityPolicy{DefaultHours: 24, MinHours: 1, MaxHours: 168}

	f.requests = service.NewRequestService(f.visits)
	f.issuer = service.NewIssuer(f.visits, codec, policy, logger, f.metrics).WithClock(f.clock.Now)
	f.scanner = service.NewScanService(f.visits, scanLog, gates, pass.NewValidator(codec), logger, f.metrics).
		WithClock(f.clock.Now)
	f.reports = service.NewReports(f.visits, scanLog)
	return f
}

func (f *fixture) submit(t *testing.T) visit.Request {
	t.Helper()
	rec, err := f.requests.Submit(context.Background(), service.SubmitInput{
		RequesterID:   "visitor-42",
		RequesterName: "Ada",
		Department:    "Computer Science",
		Purpose:       "Guest lecture",
		VisitDate:     t0.Truncate(24 * time.Hour),
		TimeSlot:      "10:00-12:00",
	})
	require.NoError(t, err)
	return rec
}

// approved submits and approves a request, returning its id and token.
func (f *fixture) approved(t *testing.T, hours int) (string, string) {
	t.Helper()
	rec := f.submit(t)
	res, err := f.issuer.Issue(context.Background(), service.IssueInput{
		RequestID:     rec.ID,
		ValidityHours: hours,
		ApprovedBy:    "admin-1",
	})
	require.NoError(t, err)
	return rec.ID, res.Token
}

func (f *fixture) scan(t *testing.T, token, gate, action string) service.ScanResult {
	t.Helper()
	res, err := f.scanner.Scan(context.Background(), service.ScanInput{
		Token:  token,
		Gate:   gate,
		Action: action,
		Agent:  "guard-7",
	})
	require.NoError(t, err)
	return res
}
