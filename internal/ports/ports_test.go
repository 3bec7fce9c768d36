package ports

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubChecker struct {
	name  string
	err   error
	calls atomic.Int32
}

func (s *stubChecker) Name() string { return s.name }

func (s *stubChecker) Check(context.Context) error {
	s.calls.Add(1)
	return s.err
}

type slowChecker struct {
	name string
}

func (c *slowChecker) Name() string { return c.name }

func (c *slowChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestRegister(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "downstream"}))
	require.NoError(t, registry.Register(&stubChecker{name: "cache"}))

	err := registry.Register(&stubChecker{name: "downstream"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "downstream")
	assert.Len(t, registry.checkers, 2)
}

func TestCheckAll_NoCheckers(t *testing.T) {
	result := NewHealthRegistry().CheckAll(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

func TestCheckAll_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		checkers []*stubChecker
		want     HealthStatus
	}{
		{
			name:     "all healthy",
			checkers: []*stubChecker{{name: "a"}, {name: "b"}, {name: "c"}},
			want:     HealthStatusHealthy,
		},
		{
			name:     "one unhealthy",
			checkers: []*stubChecker{{name: "a"}, {name: "b", err: errors.New("connection timeout")}, {name: "c"}},
			want:     HealthStatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for _, c := range tt.checkers {
				require.NoError(t, registry.Register(c))
			}

			result := registry.CheckAll(context.Background())

			assert.Equal(t, tt.want, result.Status)
			require.Len(t, result.Checks, len(tt.checkers))

			for _, c := range tt.checkers {
				assert.EqualValues(t, 1, c.calls.Load(), "every checker runs once")

				cr := result.Checks[c.name]
				if c.err != nil {
					assert.Equal(t, HealthStatusUnhealthy, cr.Status)
					assert.Equal(t, c.err.Error(), cr.Message)
				} else {
					assert.Equal(t, HealthStatusHealthy, cr.Status)
					assert.Empty(t, cr.Message)
				}
			}
		})
	}
}

func TestCheckAll_ContextCancelled(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&slowChecker{name: "slow-service"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["slow-service"].Message, "context canceled")
}
