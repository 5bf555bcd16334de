package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/metrics"
	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/store"
)

// OverstayMonitor periodically counts visitors who are still on campus
// after their pass expired. It logs each one and exports the counts as
// gauges. It never changes a record.
//
// An interval of 0 disables the monitor.
type OverstayMonitor struct {
	visits   store.VisitStore
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewOverstayMonitor creates a monitor but does not start it.
func NewOverstayMonitor(visits store.VisitStore, interval time.Duration, logger *zap.Logger, m *metrics.Metrics) *OverstayMonitor {
	return &OverstayMonitor{
		visits:   visits,
		interval: interval,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// WithClock replaces the time source. Tests only.
func (m *OverstayMonitor) WithClock(now func() time.Time) *OverstayMonitor {
	m.now = now
	return m
}

// Start runs an immediate check, then repeats on the interval until ctx is
// cancelled or Stop is called.
func (m *OverstayMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("overstay monitor disabled")
		close(m.done)
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)

	m.logger.Info("overstay monitor started", zap.Duration("interval", m.interval))
}

// Stop signals the monitor to exit and waits for it. It returns at once
// when the monitor never started its loop.
func (m *OverstayMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *OverstayMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *OverstayMonitor) check(ctx context.Context) {
	if _, _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
		m.logger.Warn("overstay check failed", zap.Error(err))
	}
}

// Check performs one pass and returns the number of visitors on campus and
// how many of them hold an expired pass.
func (m *OverstayMonitor) Check(ctx context.Context) (onCampus, overstayed int, err error) {
	recs, err := m.visits.OnCampus(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := m.now().UTC()
	for _, r := range recs {
		if r.Pass == nil || !now.After(r.Pass.ExpiresAt) {
			continue
		}
		overstayed++
		m.logger.Warn("visitor overstayed pass",
			zap.String("request_id", r.ID),
			zap.String("entry_gate", r.Entry.Gate),
			zap.Time("expired_at", r.Pass.ExpiresAt),
		)
	}

	m.metrics.SetPresence(len(recs), overstayed)
	return len(recs), overstayed, nil
}
