package usecases

import (
	"context"

	"github.com/shopspring/decimal"

	"ltitool/lti"
	"ltitool/models"
)

// LTIUseCaseInterface defines the interface for the LTI launch flow operations
type LTIUseCaseInterface interface {
	InitiateLogin(ctx context.Context, params LoginParams) (string, error)
	HandleLaunch(ctx context.Context, state, idToken string) (*models.Launch, error)
	GetLaunchView(ctx context.Context, launchID string) (*LaunchView, error)
	CompleteDeepLink(
		ctx context.Context,
		launchID string,
		resources []lti.DeepLinkResource,
	) (*DeepLinkResult, error)
	PublishScore(
		ctx context.Context,
		launchID string,
		score decimal.Decimal,
		activityProgress, gradingProgress string,
	) error
	GetScoreboard(ctx context.Context, launchID string) ([]*models.ScoreboardEntry, error)
}
