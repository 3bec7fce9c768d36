package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/go-context-propagation/internal/domain"
	"github.com/jsamuelsen/go-context-propagation/internal/ports"
)

type mockHealthRegistry struct {
	mock.Mock
}

func (m *mockHealthRegistry) Register(checker ports.HealthChecker) error {
	return m.Called(checker).Error(0)
}

func (m *mockHealthRegistry) CheckAll(ctx context.Context) *ports.HealthResult {
	res, _ := m.Called(ctx).Get(0).(*ports.HealthResult)
	return res
}

type mockContextService struct {
	mock.Mock
}

func (m *mockContextService) Snapshot(ctx context.Context) domain.Snapshot {
	return m.Called(ctx).Get(0).(domain.Snapshot)
}

func (m *mockContextService) Greet(ctx context.Context, salutation string) (*domain.Greeting, error) {
	args := m.Called(ctx, salutation)
	g, _ := args.Get(0).(*domain.Greeting)

	return g, args.Error(1)
}

func (m *mockContextService) Relay(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*domain.Snapshot)

	return s, args.Error(1)
}
