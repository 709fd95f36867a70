package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names.
const (
	MetricOperationTotal    = "episodes.operation.total"
	MetricOperationDuration = "episodes.operation.duration"
	MetricOperationErrors   = "episodes.operation.errors"

	MetricPartsShifted = "episodes.parts.shifted"

	MetricOutboxPublished = "episodes.outbox.published"
	MetricOutboxFailed    = "episodes.outbox.failed"
	MetricOutboxDead      = "episodes.outbox.dead"
	MetricOutboxPending   = "episodes.outbox.pending"
	MetricOutboxLag       = "episodes.outbox.lag_seconds"
)

// Metrics records counters, gauges and timings.
type Metrics interface {
	Counter(name string, delta int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, d time.Duration, tags ...Tag)
}

// Tag labels a metric.
type Tag struct {
	Key   string
	Value string
}

// T creates a Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps metrics in process. The worker serves a snapshot of
// it on /metrics and tests assert against it.
type InMemoryMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, delta int64, tags ...Tag) {
	m.mu.Lock()
	m.counters[FormatKey(name, tags)] += delta
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	m.gauges[FormatKey(name, tags)] = value
	m.mu.Unlock()
}

func (m *InMemoryMetrics) Timing(name string, d time.Duration, tags ...Tag) {
	m.mu.Lock()
	key := FormatKey(name, tags)
	m.timings[key] = append(m.timings[key], d)
	m.mu.Unlock()
}

// GetCounter returns the counter value for name and tags.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[FormatKey(name, tags)]
}

// GetGauge returns the last gauge value for name and tags.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gauges[FormatKey(name, tags)]
}

// GetTimings returns a copy of the recorded durations for name and tags.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.timings[FormatKey(name, tags)]...)
}

// Snapshot copies the current counters and gauges.
func (m *InMemoryMetrics) Snapshot() (counters map[string]int64, gauges map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters = make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	gauges = make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	return counters, gauges
}

// FormatKey renders name and tags as name{k1=v1,k2=v2} with tags sorted by
// key, so the same tags in any order address the same series.
func FormatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}
