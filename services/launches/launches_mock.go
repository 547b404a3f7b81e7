package launches

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"ltitool/models"
)

// MockLaunchesService is a mock implementation of the LaunchesService interface
type MockLaunchesService struct {
	mock.Mock
}

func (m *MockLaunchesService) CreateLoginState(
	ctx context.Context,
	platformID, targetLinkURI string,
) (*models.LaunchState, error) {
	args := m.Called(ctx, platformID, targetLinkURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LaunchState), args.Error(1)
}

func (m *MockLaunchesService) ConsumeLoginState(
	ctx context.Context,
	state string,
) (mo.Option[*models.LaunchState], error) {
	args := m.Called(ctx, state)
	return args.Get(0).(mo.Option[*models.LaunchState]), args.Error(1)
}

func (m *MockLaunchesService) ValidateNonce(ctx context.Context, platformID, nonce, expectedNonce string) error {
	args := m.Called(ctx, platformID, nonce, expectedNonce)
	return args.Error(0)
}

func (m *MockLaunchesService) CreateLaunch(
	ctx context.Context,
	platformID string,
	claims models.LaunchClaims,
) (*models.Launch, error) {
	args := m.Called(ctx, platformID, claims)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Launch), args.Error(1)
}

func (m *MockLaunchesService) GetLaunchByID(ctx context.Context, id string) (mo.Option[*models.Launch], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Launch]), args.Error(1)
}

func (m *MockLaunchesService) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
