package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy before any check", func(t *testing.T) {
		assert.Equal(t, HealthStatusHealthy, NewHealthRegistry().OverallStatus())
	})

	t.Run("worst status wins", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(func(context.Context) error { return nil }))
		r.Register("broker", BreakerHealthChecker("rabbitmq", func() string { return "open" }))

		health := r.GetOverallHealth(ctx)

		assert.Equal(t, HealthStatusDegraded, health.Status)
		require.Contains(t, health.Checks, "broker")
		assert.Equal(t, "circuit breaker open", health.Checks["broker"].Message)
		assert.Equal(t, "rabbitmq", health.Checks["broker"].Details["broker"])
		assert.False(t, health.Checks["database"].Timestamp.IsZero())

		r.Register("database", DatabaseHealthChecker(func(context.Context) error { return errors.New("refused") }))
		r.Check(ctx)
		assert.Equal(t, HealthStatusUnhealthy, r.OverallStatus())
	})

	t.Run("serialises to json", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("broker", BreakerHealthChecker("redis", func() string { return "closed" }))

		body, err := r.GetOverallHealth(ctx).ToJSON()

		require.NoError(t, err)
		assert.Contains(t, string(body), `"status":"healthy"`)
	})
}

func TestBacklogHealthChecker(t *testing.T) {
	ctx := context.Background()
	pending := func(n int64, err error) func(context.Context) (int64, error) {
		return func(context.Context) (int64, error) { return n, err }
	}

	assert.Equal(t, HealthStatusHealthy, BacklogHealthChecker(pending(3, nil), 10)(ctx).Status)
	assert.Equal(t, HealthStatusDegraded, BacklogHealthChecker(pending(11, nil), 10)(ctx).Status)
	assert.Equal(t, HealthStatusHealthy, BacklogHealthChecker(pending(500, nil), 0)(ctx).Status)
	failed := BacklogHealthChecker(pending(0, errors.New("locked")), 10)(ctx)
	assert.Equal(t, HealthStatusUnhealthy, failed.Status)
	assert.Equal(t, "backlog unknown: locked", failed.Message)

	over := BacklogHealthChecker(pending(11, nil), 10)(ctx)
	assert.EqualValues(t, 11, over.Details["pending"])
}
