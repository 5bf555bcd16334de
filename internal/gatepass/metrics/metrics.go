package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gate pass engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Scans by requested action, outcome and failure reason
	Scans *prometheus.CounterVec

	// End-to-end scan handling latency
	ScanLatency prometheus.Histogram

	// Passes issued and requests rejected
	PassesIssued     prometheus.Counter
	RequestsRejected prometheus.Counter

	// Visitors still on campus after their pass expired
	Overstayed prometheus.Gauge

	// Visitors currently on campus
	OnCampus prometheus.Gauge
}

// New registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatepass_scans_total",
			Help: "Gate scans by action, outcome and reason",
		}, []string{"action", "outcome", "reason"}),

		ScanLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gatepass_scan_duration_seconds",
			Help:    "Duration of scan handling including persistence and audit append",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		PassesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_passes_issued_total",
			Help: "Passes issued on approval",
		}),

		RequestsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_requests_rejected_total",
			Help: "Visit requests rejected",
		}),

		Overstayed: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatepass_overstayed_visitors",
			Help: "Visitors on campus whose pass has expired",
		}),

		OnCampus: f.NewGauge(prometheus.GaugeOpts{
			Name: "gatepass_on_campus_visitors",
			Help: "Visitors who entered and have not exited",
		}),
	}
}

func (m *Metrics) ObserveScan(action, outcome, reason string, d time.Duration) {
	if m != nil {
		m.Scans.WithLabelValues(action, outcome, reason).Inc()
		m.ScanLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.PassesIssued.Inc()
	}
}

func (m *Metrics) IncrementRejected() {
	if m != nil {
		m.RequestsRejected.Inc()
	}
}

func (m *Metrics) SetPresence(onCampus, overstayed int) {
	if m != nil {
		m.OnCampus.Set(float64(onCampus))
		m.Overstayed.Set(float64(overstayed))
	}
}
