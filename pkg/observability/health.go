package observability

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// HealthStatus is the state of one component or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the worst one can be picked.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HealthCheckResult is the outcome of one check. Duration and Timestamp are
// filled in by the registry.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker probes one component.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry runs named checks and remembers their last results.
type HealthRegistry struct {
	mu       sync.Mutex
	checkers map[string]HealthChecker
	last     map[string]HealthCheckResult
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{
		checkers: make(map[string]HealthChecker),
		last:     make(map[string]HealthCheckResult),
	}
}

// Register adds or replaces the checker for name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check runs every checker concurrently and returns their results.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.Lock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.Unlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			result := checker(ctx)
			result.Duration = time.Since(start)
			result.Timestamp = time.Now()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	r.mu.Lock()
	r.last = results
	r.mu.Unlock()
	return results
}

// OverallStatus is the worst status among the last results.
func (r *HealthRegistry) OverallStatus() HealthStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return worst(r.last)
}

func worst(results map[string]HealthCheckResult) HealthStatus {
	status := HealthStatusHealthy
	for _, result := range results {
		if result.Status.severity() > status.severity() {
			status = result.Status
		}
	}
	return status
}

// OverallHealth is the body served on readiness probes.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs all checks and summarises them.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)
	return OverallHealth{
		Status:    worst(checks),
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// ToJSON serializes the summary.
func (h OverallHealth) ToJSON() ([]byte, error) {
	return json.Marshal(h)
}

func result(status HealthStatus, message string, details map[string]any) HealthCheckResult {
	return HealthCheckResult{Status: status, Message: message, Details: details}
}

// DatabaseHealthChecker is unhealthy while ping fails.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return result(HealthStatusUnhealthy, "ping failed: "+err.Error(), nil)
		}
		return result(HealthStatusHealthy, "", nil)
	}
}

// BreakerHealthChecker reports a broker as degraded while its circuit
// breaker is not closed. Events keep accumulating in the outbox meanwhile.
func BreakerHealthChecker(broker string, state func() string) HealthChecker {
	return func(context.Context) HealthCheckResult {
		current := state()
		details := map[string]any{"broker": broker, "state": current}
		if current != "closed" {
			return result(HealthStatusDegraded, "circuit breaker "+current, details)
		}
		return result(HealthStatusHealthy, "", details)
	}
}

// BacklogHealthChecker reports degraded once more than maxPending outbox
// messages wait to be published. A non-positive maxPending disables the limit.
func BacklogHealthChecker(pending func(ctx context.Context) (int64, error), maxPending int64) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		n, err := pending(ctx)
		if err != nil {
			return result(HealthStatusUnhealthy, "backlog unknown: "+err.Error(), nil)
		}
		details := map[string]any{"pending": n, "max_pending": maxPending}
		if maxPending > 0 && n > maxPending {
			return result(HealthStatusDegraded, "outbox backlog above limit", details)
		}
		return result(HealthStatusHealthy, "", details)
	}
}
