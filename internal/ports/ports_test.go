package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name     string
	err      error
	optional bool
}

func (s *stubChecker) Name() string                { return s.name }
func (s *stubChecker) Check(context.Context) error { return s.err }
func (s *stubChecker) Optional() bool              { return s.optional }

func TestRegister(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "redis"}))

	err := registry.Register(&stubChecker{name: "redis"})
	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "redis")
	assert.Len(t, registry.checkers, 1)
}

func TestCheckAll(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name     string
		checkers []*stubChecker
		want     HealthStatus
	}{
		{
			name: "no checkers",
			want: HealthStatusHealthy,
		},
		{
			name:     "all healthy",
			checkers: []*stubChecker{{name: "a"}, {name: "b"}},
			want:     HealthStatusHealthy,
		},
		{
			name:     "optional failure degrades",
			checkers: []*stubChecker{{name: "redis", err: boom, optional: true}, {name: "b"}},
			want:     HealthStatusDegraded,
		},
		{
			name:     "required failure is unhealthy",
			checkers: []*stubChecker{{name: "core", err: boom}, {name: "redis", err: boom, optional: true}},
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
			assert.Equal(t, tt.want != HealthStatusUnhealthy, result.Ready())
			assert.Len(t, result.Checks, len(tt.checkers))
			assert.False(t, result.Timestamp.IsZero())

			for _, c := range tt.checkers {
				cr := result.Checks[c.name]
				require.NotNil(t, cr)
				assert.Equal(t, c.optional, cr.Optional)
				if c.err != nil {
					assert.Equal(t, HealthStatusUnhealthy, cr.Status)
					assert.Equal(t, c.err.Error(), cr.Message)
				}
			}
		})
	}
}
