package works

import (
	"context"
	"fmt"
	"time"

	"github.com/matsen/works/internal/bulk"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName scopes every instrument the manager creates.
const meterName = "github.com/matsen/works/internal/works"

// managerMetrics holds the OpenTelemetry instruments for the manager.
// They are created once in New and reused for every call.
type managerMetrics struct {
	groupingRuns        metric.Int64Counter
	groupingDuration    metric.Float64Histogram
	groupsPerRun        metric.Int64Histogram
	suggestionsPerRun   metric.Int64Histogram
	bulkItems           metric.Int64Counter
	invariantViolations metric.Int64Counter
}

func newManagerMetrics(meter metric.Meter) (*managerMetrics, error) {
	m := &managerMetrics{}
	var err error

	m.groupingRuns, err = meter.Int64Counter(
		"works.grouping.runs",
		metric.WithDescription("Number of grouping runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create grouping runs counter: %w", err)
	}

	m.groupingDuration, err = meter.Float64Histogram(
		"works.grouping.duration",
		metric.WithDescription("Grouping duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create grouping duration histogram: %w", err)
	}

	m.groupsPerRun, err = meter.Int64Histogram(
		"works.grouping.groups",
		metric.WithDescription("Groups produced per grouping run"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create groups histogram: %w", err)
	}

	m.suggestionsPerRun, err = meter.Int64Histogram(
		"works.grouping.suggestions",
		metric.WithDescription("Suggestions produced per suggestion run"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create suggestions histogram: %w", err)
	}

	m.bulkItems, err = meter.Int64Counter(
		"works.bulk.items",
		metric.WithDescription("Bulk request entries by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create bulk items counter: %w", err)
	}

	m.invariantViolations, err = meter.Int64Counter(
		"works.grouping.invariant_violations",
		metric.WithDescription("Grouping runs that failed partition verification"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create invariant violations counter: %w", err)
	}

	return m, nil
}

func (m *managerMetrics) recordGrouping(ctx context.Context, publicOnly bool, groups int, elapsed time.Duration, err error) {
	opts := metric.WithAttributes(attribute.Bool("public_only", publicOnly))
	m.groupingRuns.Add(ctx, 1, opts)
	if err != nil {
		m.invariantViolations.Add(ctx, 1)
		return
	}
	m.groupingDuration.Record(ctx, float64(elapsed.Microseconds())/1000, opts)
	m.groupsPerRun.Record(ctx, int64(groups), opts)
}

func (m *managerMetrics) recordBulk(ctx context.Context, res *bulk.Result) {
	m.bulkItems.Add(ctx, int64(len(res.Resolved)), metric.WithAttributes(attribute.String("outcome", "resolved")))
	m.bulkItems.Add(ctx, int64(len(res.Failures)-len(res.Malformed)), metric.WithAttributes(attribute.String("outcome", "missing")))
	m.bulkItems.Add(ctx, int64(len(res.Malformed)), metric.WithAttributes(attribute.String("outcome", "malformed")))
}
