package tokens

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ltitool/models"
)

// MockPlatformTokensService is a mock implementation of the PlatformTokensService interface
type MockPlatformTokensService struct {
	mock.Mock
}

func (m *MockPlatformTokensService) GetAccessToken(
	ctx context.Context,
	platform *models.Platform,
	scopes []string,
) (string, error) {
	args := m.Called(ctx, platform, scopes)
	return args.String(0), args.Error(1)
}
