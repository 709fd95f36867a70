package observability

import (
	"time"
)

// Timer measures one operation and reports it to a Metrics sink.
type Timer struct {
	metrics   Metrics
	operation string
	start     time.Time
	tags      []Tag
}

// StartTimer starts timing operation. A nil sink discards the measurement.
func StartTimer(metrics Metrics, operation string, tags ...Tag) *Timer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Timer{
		metrics:   metrics,
		operation: operation,
		start:     time.Now(),
		tags:      append([]Tag{T(OperationKey, operation)}, tags...),
	}
}

// Done records the duration and outcome of the operation.
//
// MetricOperationTotal is tagged with outcome=ok or outcome=error;
// failures are also counted under MetricOperationErrors.
func (t *Timer) Done(err error) time.Duration {
	elapsed := time.Since(t.start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		t.metrics.Counter(MetricOperationErrors, 1, t.tags...)
	}
	t.metrics.Timing(MetricOperationDuration, elapsed, t.tags...)
	t.metrics.Counter(MetricOperationTotal, 1, append(t.tags[:len(t.tags):len(t.tags)], T(OutcomeKey, outcome))...)

	return elapsed
}
