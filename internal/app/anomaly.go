package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/metrics"
	"github.com/pscheid92/repledger/internal/platform/correlation"
)

const (
	DefaultScanInterval     = 1 * time.Hour
	DefaultScanStartupDelay = 30 * time.Second
	anomalyLookback         = 24 * time.Hour
	shillingThreshold       = 5
	revengeWindow           = 10 * time.Minute
)

// DetectorState is the detector loop's current phase.
type DetectorState int32

const (
	StateSleeping DetectorState = iota
	StateScanning
	StateReporting
)

func (s DetectorState) String() string {
	switch s {
	case StateSleeping:
		return "sleeping"
	case StateScanning:
		return "scanning"
	case StateReporting:
		return "reporting"
	default:
		return "unknown"
	}
}

// DetectorPolicy holds the detection thresholds and timing.
type DetectorPolicy struct {
	Interval          time.Duration
	StartupDelay      time.Duration
	Lookback          time.Duration
	ShillingThreshold int
	RevengeWindow     time.Duration
}

func DefaultDetectorPolicy() DetectorPolicy {
	return DetectorPolicy{
		Interval:          DefaultScanInterval,
		StartupDelay:      DefaultScanStartupDelay,
		Lookback:          anomalyLookback,
		ShillingThreshold: shillingThreshold,
		RevengeWindow:     revengeWindow,
	}
}

// Detector periodically scans the ledger for shilling and revenge downvoting
// and forwards every finding to the sink. A failed scan is logged and retried
// on the next interval; it never stops the loop.
type Detector struct {
	scanner domain.AnomalyScanner
	sink    domain.AnomalySink
	lease   domain.ScanLease
	policy  DetectorPolicy
	clock   clockwork.Clock
	metrics *metrics.DetectorMetrics

	state atomic.Int32
}

// NewDetector creates a detector. lease may be nil, in which case every scan runs locally.
func NewDetector(scanner domain.AnomalyScanner, sink domain.AnomalySink, lease domain.ScanLease, policy DetectorPolicy, clock clockwork.Clock, m *metrics.DetectorMetrics) *Detector {
	return &Detector{
		scanner: scanner,
		sink:    sink,
		lease:   lease,
		policy:  policy,
		clock:   clock,
		metrics: m,
	}
}

// State reports the loop's current phase.
func (d *Detector) State() DetectorState {
	return DetectorState(d.state.Load())
}

// Run blocks until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	defer d.releaseLease(ctx)

	d.setState(StateSleeping)
	if !d.sleep(ctx, d.policy.StartupDelay) {
		return
	}

	for {
		d.ScanOnce(ctx)
		d.setState(StateSleeping)
		if !d.sleep(ctx, d.policy.Interval) {
			return
		}
	}
}

// ScanOnce runs both detection rules once and reports their findings.
func (d *Detector) ScanOnce(ctx context.Context) {
	scanCtx := correlation.WithID(ctx, correlation.NewID())
	start := d.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(scanCtx, "Anomaly scan panicked", "panic", fmt.Sprint(r))
			d.metrics.ScanCompleted("panic", d.clock.Since(start))
		}
	}()

	if d.lease != nil {
		acquired, err := d.lease.TryAcquire(scanCtx)
		if err != nil {
			slog.WarnContext(scanCtx, "Anomaly scan lease check failed", "error", err)
			d.metrics.ScanCompleted("error", d.clock.Since(start))
			return
		}
		if !acquired {
			slog.DebugContext(scanCtx, "Anomaly scan skipped, another instance holds the lease")
			d.metrics.ScanCompleted("skipped", d.clock.Since(start))
			return
		}
	}

	d.setState(StateScanning)
	since := start.Add(-d.policy.Lookback)
	outcome := "ok"

	shilling, err := d.scanner.FindShilling(scanCtx, since, d.policy.ShillingThreshold)
	if err != nil {
		slog.ErrorContext(scanCtx, "Shilling scan failed", "error", err)
		outcome = "error"
	}

	revenge, err := d.scanner.FindRevengeDownvotes(scanCtx, since, d.policy.RevengeWindow)
	if err != nil {
		slog.ErrorContext(scanCtx, "Revenge downvote scan failed", "error", err)
		outcome = "error"
	}

	d.setState(StateReporting)
	for _, f := range shilling {
		d.report(scanCtx, domain.AnomalyShilling, domain.AnomalyDetails{
			EvaluatorID: f.EvaluatorID,
			TargetID:    f.TargetID,
			Count:       f.Count,
		})
	}
	for _, f := range revenge {
		d.report(scanCtx, domain.AnomalyRevengeDownvote, domain.AnomalyDetails{
			EvaluatorID: f.RetaliatorID,
			TargetID:    f.OriginalID,
			OriginalAt:  f.OriginalAt,
			ResponseAt:  f.ResponseAt,
		})
	}

	d.metrics.ScanCompleted(outcome, d.clock.Since(start))
	slog.InfoContext(scanCtx, "Anomaly scan finished",
		"outcome", outcome,
		"shilling", len(shilling),
		"revenge", len(revenge),
		"duration", d.clock.Since(start))
}

func (d *Detector) report(ctx context.Context, kind domain.AnomalyKind, details domain.AnomalyDetails) {
	d.metrics.Finding(kind)
	if err := d.sink.ReportAnomaly(ctx, kind, details); err != nil {
		slog.WarnContext(ctx, "Failed to report anomaly",
			"kind", kind,
			"evaluator_id", details.EvaluatorID,
			"target_id", details.TargetID,
			"error", err)
	}
}

func (d *Detector) sleep(ctx context.Context, delay time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-d.clock.After(delay):
		return true
	}
}

func (d *Detector) releaseLease(ctx context.Context) {
	if d.lease == nil {
		return
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.lease.Release(releaseCtx); err != nil {
		slog.Warn("Failed to release anomaly scan lease", "error", err)
	}
}

func (d *Detector) setState(s DetectorState) {
	d.state.Store(int32(s))
}

// LogSink reports anomalies to the structured log only.
type LogSink struct{}

func (LogSink) ReportAnomaly(ctx context.Context, kind domain.AnomalyKind, details domain.AnomalyDetails) error {
	slog.WarnContext(ctx, "Anomaly detected",
		"kind", kind,
		"evaluator_id", details.EvaluatorID,
		"target_id", details.TargetID,
		"count", details.Count,
		"summary", details.Summary(kind))
	return nil
}
