package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal       = "runfile.runs.total"
	metricRunDuration     = "runfile.run.duration.seconds"
	metricDependencyCount = "runfile.dependencies.inferred"

	attrLang   = "lang"
	attrStatus = "status"

	// StatusOK labels a successful run.
	StatusOK = "ok"
	// StatusError labels a failed run.
	StatusError = "error"
)

// durationBucketBoundaries covers interpreter runs of a few milliseconds up to
// cold cargo builds that download and compile a dependency tree.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

var dependencyBucketBoundaries = []float64{0, 1, 2, 3, 5, 8, 13, 21}

// RunMetrics holds the OTel instruments recorded per invocation.
type RunMetrics struct {
	runsTotal       metric.Int64Counter
	runDuration     metric.Float64Histogram
	dependencyCount metric.Int64Histogram
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	runsTotal, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Total number of script runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	runDuration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Script run duration in seconds, including staging and compilation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	dependencyCount, err := mt.Int64Histogram(metricDependencyCount,
		metric.WithDescription("External dependencies inferred per compiled source"),
		metric.WithUnit("{dependency}"),
		metric.WithExplicitBucketBoundaries(dependencyBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDependencyCount, err)
	}

	return &RunMetrics{
		runsTotal:       runsTotal,
		runDuration:     runDuration,
		dependencyCount: dependencyCount,
	}, nil
}

// RecordRun records a finished run with its language, status, and duration.
func (rm *RunMetrics) RecordRun(ctx context.Context, lang, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrLang, lang),
		attribute.String(attrStatus, status),
	)

	rm.runsTotal.Add(ctx, 1, attrs)
	rm.runDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDependencies records the size of an inferred dependency set.
func (rm *RunMetrics) RecordDependencies(ctx context.Context, count int) {
	if rm == nil {
		return
	}

	rm.dependencyCount.Record(ctx, int64(count))
}
