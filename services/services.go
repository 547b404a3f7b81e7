package services

import (
	"context"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"

	"ltitool/clients"
	"ltitool/models"
)

// UsersService defines the interface for admin user operations
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID, email string) (*models.User, error)
}

// PlatformsService defines the interface for platform registration records
type PlatformsService interface {
	CreatePlatform(ctx context.Context, platform *models.Platform) (*models.Platform, error)
	GetPlatformByID(ctx context.Context, id string) (mo.Option[*models.Platform], error)
	GetPlatformByIssuer(ctx context.Context, issuer, clientID string) (mo.Option[*models.Platform], error)
	GetAllPlatforms(ctx context.Context) ([]*models.Platform, error)
	DeletePlatform(ctx context.Context, id string) error
}

// ToolKeysService defines the interface for the tool's signing keys
type ToolKeysService interface {
	GenerateToolKey(ctx context.Context, activate bool) (*models.ToolKey, error)
	GetActiveToolKey(ctx context.Context) (mo.Option[*models.ToolKey], error)
	RotateToolKey(ctx context.Context) (*models.ToolKey, error)
	DeleteToolKey(ctx context.Context, id string) error
	GetToolJWKS(ctx context.Context) (*jose.JSONWebKeySet, error)
}

// LaunchesService defines the interface for login state and launch records
type LaunchesService interface {
	CreateLoginState(ctx context.Context, platformID, targetLinkURI string) (*models.LaunchState, error)
	ConsumeLoginState(ctx context.Context, state string) (mo.Option[*models.LaunchState], error)
	ValidateNonce(ctx context.Context, platformID, nonce, expectedNonce string) error
	CreateLaunch(ctx context.Context, platformID string, claims models.LaunchClaims) (*models.Launch, error)
	GetLaunchByID(ctx context.Context, id string) (mo.Option[*models.Launch], error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// RegistrationService defines the interface for LTI dynamic registration
type RegistrationService interface {
	RegisterPlatform(ctx context.Context, openidConfigURL, registrationToken string) (*models.Platform, error)
}

// PlatformTokensService defines the interface for platform access tokens
type PlatformTokensService interface {
	GetAccessToken(ctx context.Context, platform *models.Platform, scopes []string) (string, error)
}

// GradesService defines the interface for the AGS client operations
type GradesService interface {
	PublishScore(
		ctx context.Context,
		launch *models.Launch,
		platform *models.Platform,
		score decimal.Decimal,
		activityProgress, gradingProgress string,
	) error
	GetScores(ctx context.Context, launch *models.Launch, platform *models.Platform) ([]*clients.Result, error)
}

// MembershipsService defines the interface for the NRPS client operations
type MembershipsService interface {
	GetScoreboard(ctx context.Context, launch *models.Launch, platform *models.Platform) ([]*models.ScoreboardEntry, error)
}

// TransactionManager defines the interface for database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}
