package domain

import (
	"context"
	"fmt"
	"time"
)

type AnomalyKind string

const (
	AnomalyShilling        AnomalyKind = "shilling"
	AnomalyRevengeDownvote AnomalyKind = "revenge_downvote"
)

// AnomalyDetails describes one finding. For shilling, Count is set; for revenge
// downvoting, EvaluatorID is the retaliating user and TargetID the user who warned first.
type AnomalyDetails struct {
	EvaluatorID int64
	TargetID    int64
	Count       int
	OriginalAt  time.Time
	ResponseAt  time.Time
}

// Summary is a plain-text, markup-free description for operators.
func (d AnomalyDetails) Summary(kind AnomalyKind) string {
	switch kind {
	case AnomalyShilling:
		return fmt.Sprintf("user %d recommended user %d %d times in the last 24h", d.EvaluatorID, d.TargetID, d.Count)
	case AnomalyRevengeDownvote:
		return fmt.Sprintf("user %d warned user %d %s after being warned by them",
			d.EvaluatorID, d.TargetID, d.ResponseAt.Sub(d.OriginalAt).Round(time.Second))
	default:
		return fmt.Sprintf("%s: evaluator=%d target=%d", kind, d.EvaluatorID, d.TargetID)
	}
}

// ShillingFinding is a (target, evaluator) group of recent recommends above the threshold.
type ShillingFinding struct {
	EvaluatorID int64
	TargetID    int64
	Count       int
}

// RevengeFinding pairs a warn (Response) with an earlier reciprocal warn (Original).
type RevengeFinding struct {
	RetaliatorID int64
	OriginalID   int64
	OriginalAt   time.Time
	ResponseAt   time.Time
}

// AnomalyScanner runs the detection queries over the ledger.
type AnomalyScanner interface {
	FindShilling(ctx context.Context, since time.Time, threshold int) ([]ShillingFinding, error)
	FindRevengeDownvotes(ctx context.Context, since time.Time, window time.Duration) ([]RevengeFinding, error)
}

// AnomalySink delivers findings to operators.
type AnomalySink interface {
	ReportAnomaly(ctx context.Context, kind AnomalyKind, details AnomalyDetails) error
}

// ScanLease lets a single instance of a deployment run a scan.
type ScanLease interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}
