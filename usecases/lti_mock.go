package usecases

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"ltitool/lti"
	"ltitool/models"
)

// MockLTIUseCase is a mock implementation of the LTIUseCaseInterface
type MockLTIUseCase struct {
	mock.Mock
}

func (m *MockLTIUseCase) InitiateLogin(ctx context.Context, params LoginParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockLTIUseCase) HandleLaunch(ctx context.Context, state, idToken string) (*models.Launch, error) {
	args := m.Called(ctx, state, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Launch), args.Error(1)
}

func (m *MockLTIUseCase) GetLaunchView(ctx context.Context, launchID string) (*LaunchView, error) {
	args := m.Called(ctx, launchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LaunchView), args.Error(1)
}

func (m *MockLTIUseCase) CompleteDeepLink(
	ctx context.Context,
	launchID string,
	resources []lti.DeepLinkResource,
) (*DeepLinkResult, error) {
	args := m.Called(ctx, launchID, resources)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DeepLinkResult), args.Error(1)
}

func (m *MockLTIUseCase) PublishScore(
	ctx context.Context,
	launchID string,
	score decimal.Decimal,
	activityProgress, gradingProgress string,
) error {
	args := m.Called(ctx, launchID, score, activityProgress, gradingProgress)
	return args.Error(0)
}

func (m *MockLTIUseCase) GetScoreboard(ctx context.Context, launchID string) ([]*models.ScoreboardEntry, error) {
	args := m.Called(ctx, launchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreboardEntry), args.Error(1)
}
