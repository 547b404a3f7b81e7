package platforms

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"ltitool/models"
)

// MockPlatformsService is a mock implementation of the PlatformsService interface
type MockPlatformsService struct {
	mock.Mock
}

func (m *MockPlatformsService) CreatePlatform(ctx context.Context, platform *models.Platform) (*models.Platform, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Platform), args.Error(1)
}

func (m *MockPlatformsService) GetPlatformByID(ctx context.Context, id string) (mo.Option[*models.Platform], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Platform]), args.Error(1)
}

func (m *MockPlatformsService) GetPlatformByIssuer(
	ctx context.Context,
	issuer, clientID string,
) (mo.Option[*models.Platform], error) {
	args := m.Called(ctx, issuer, clientID)
	return args.Get(0).(mo.Option[*models.Platform]), args.Error(1)
}

func (m *MockPlatformsService) GetAllPlatforms(ctx context.Context) ([]*models.Platform, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Platform), args.Error(1)
}

func (m *MockPlatformsService) DeletePlatform(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
