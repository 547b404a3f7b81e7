package memberships

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ltitool/models"
)

// MockMembershipsService is a mock implementation of the MembershipsService interface
type MockMembershipsService struct {
	mock.Mock
}

func (m *MockMembershipsService) GetScoreboard(
	ctx context.Context,
	launch *models.Launch,
	platform *models.Platform,
) ([]*models.ScoreboardEntry, error) {
	args := m.Called(ctx, launch, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreboardEntry), args.Error(1)
}
