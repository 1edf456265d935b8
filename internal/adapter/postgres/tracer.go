package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/metrics"
)

// QueryTracer records per-query latency and errors. Queries are labelled by
// their leading "-- name: X" comment, falling back to the SQL verb.
type QueryTracer struct {
	metrics *metrics.DBMetrics
	clock   clockwork.Clock
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

func NewQueryTracer(m *metrics.DBMetrics, clock clockwork.Clock) *QueryTracer {
	return &QueryTracer{metrics: m, clock: clock}
}

type traceKey struct{}

type traceStart struct {
	query string
	start time.Time
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{query: queryName(data.SQL), start: t.clock.Now()})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	ts, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	t.metrics.ObserveQuery(ts.query, t.clock.Since(ts.start), data.Err)
}

// queryName keeps label cardinality bounded: one value per named query.
func queryName(sql string) string {
	sql = strings.TrimSpace(sql)
	if rest, ok := strings.CutPrefix(sql, "-- name:"); ok {
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			return fields[0]
		}
	}

	verb, _, _ := strings.Cut(sql, " ")
	verb = strings.ToUpper(strings.TrimSpace(verb))
	if verb == "" {
		return "unknown"
	}
	if len(verb) > 20 {
		return verb[:20]
	}
	return verb
}
