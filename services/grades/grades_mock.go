package grades

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"ltitool/clients"
	"ltitool/models"
)

// MockGradesService is a mock implementation of the GradesService interface
type MockGradesService struct {
	mock.Mock
}

func (m *MockGradesService) PublishScore(
	ctx context.Context,
	launch *models.Launch,
	platform *models.Platform,
	score decimal.Decimal,
	activityProgress, gradingProgress string,
) error {
	args := m.Called(ctx, launch, platform, score, activityProgress, gradingProgress)
	return args.Error(0)
}

func (m *MockGradesService) GetScores(
	ctx context.Context,
	launch *models.Launch,
	platform *models.Platform,
) ([]*clients.Result, error) {
	args := m.Called(ctx, launch, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.Result), args.Error(1)
}
