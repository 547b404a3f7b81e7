package launches

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"ltitool/core"
	"ltitool/db"
	"ltitool/lti"
	"ltitool/models"
)

const (
	// loginStateTTL bounds the window between the OIDC login initiation and
	// the platform posting the id_token back.
	loginStateTTL = 10 * time.Minute

	// launchTTL is how long a validated launch stays retrievable by ID.
	launchTTL = 24 * time.Hour
)

type LaunchesService struct {
	launchStatesRepo *db.PostgresLaunchStatesRepository
	launchesRepo     *db.PostgresLaunchesRepository
}

func NewLaunchesService(
	launchStatesRepo *db.PostgresLaunchStatesRepository,
	launchesRepo *db.PostgresLaunchesRepository,
) *LaunchesService {
	return &LaunchesService{
		launchStatesRepo: launchStatesRepo,
		launchesRepo:     launchesRepo,
	}
}

func (s *LaunchesService) CreateLoginState(
	ctx context.Context,
	platformID, targetLinkURI string,
) (*models.LaunchState, error) {
	log.Printf("📋 Starting to create login state for platform: %s", platformID)

	if !core.IsValidULID(platformID) {
		return nil, fmt.Errorf("platform ID must be a valid ULID")
	}

	stateToken, err := core.NewStateToken("state")
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	state := &models.LaunchState{
		ID:            core.NewID("lst"),
		State:         stateToken,
		Nonce:         uuid.NewString(),
		PlatformID:    platformID,
		TargetLinkURI: targetLinkURI,
		ExpiresAt:     time.Now().Add(loginStateTTL),
	}

	if err := s.launchStatesRepo.CreateLaunchState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to create login state: %w", err)
	}

	log.Printf("📋 Completed successfully - created login state with ID: %s", state.ID)
	return state, nil
}

func (s *LaunchesService) ConsumeLoginState(
	ctx context.Context,
	state string,
) (mo.Option[*models.LaunchState], error) {
	log.Printf("📋 Starting to consume login state")

	stateOpt, err := s.launchStatesRepo.ConsumeLaunchState(ctx, state)
	if err != nil {
		log.Printf("❌ Failed to consume login state: %v", err)
		return mo.None[*models.LaunchState](), fmt.Errorf("failed to consume login state: %w", err)
	}

	if !stateOpt.IsPresent() {
		log.Printf("📋 Completed successfully - login state unknown, expired or already consumed")
		return mo.None[*models.LaunchState](), nil
	}

	record := stateOpt.MustGet()
	log.Printf("📋 Completed successfully - consumed login state with ID: %s", record.ID)
	return mo.Some(record), nil
}

// ValidateNonce checks the id_token nonce against the one issued at login
// initiation and rejects nonces already seen on a recorded launch.
func (s *LaunchesService) ValidateNonce(ctx context.Context, platformID, nonce, expectedNonce string) error {
	log.Printf("📋 Starting to validate nonce for platform: %s", platformID)

	if nonce == "" {
		return fmt.Errorf("id_token is missing a nonce")
	}
	if nonce != expectedNonce {
		return fmt.Errorf("nonce does not match the login initiation")
	}

	used, err := s.launchesRepo.WasNonceUsed(ctx, platformID, nonce)
	if err != nil {
		return fmt.Errorf("failed to check nonce usage: %w", err)
	}
	if used {
		return fmt.Errorf("nonce was already used")
	}

	log.Printf("📋 Completed successfully - nonce is valid")
	return nil
}

func (s *LaunchesService) CreateLaunch(
	ctx context.Context,
	platformID string,
	claims models.LaunchClaims,
) (*models.Launch, error) {
	log.Printf("📋 Starting to create launch for platform: %s", platformID)

	subject := claims.GetString("sub")
	if subject == "" {
		return nil, fmt.Errorf("claims are missing a subject")
	}
	messageType := claims.GetString(lti.ClaimMessageType)
	if messageType == "" {
		return nil, fmt.Errorf("claims are missing a message type")
	}
	deploymentID := claims.GetString(lti.ClaimDeploymentID)
	if deploymentID == "" {
		return nil, fmt.Errorf("claims are missing a deployment ID")
	}

	launch := &models.Launch{
		ID:           core.NewID("lnc"),
		PlatformID:   platformID,
		Subject:      subject,
		MessageType:  messageType,
		DeploymentID: deploymentID,
		Claims:       claims,
		ExpiresAt:    time.Now().Add(launchTTL),
	}

	if err := s.launchesRepo.CreateLaunch(ctx, launch); err != nil {
		return nil, fmt.Errorf("failed to create launch: %w", err)
	}

	log.Printf("📋 Completed successfully - created launch with ID: %s", launch.ID)
	return launch, nil
}

func (s *LaunchesService) GetLaunchByID(ctx context.Context, id string) (mo.Option[*models.Launch], error) {
	log.Printf("📋 Starting to get launch by ID: %s", id)

	launchOpt, err := s.launchesRepo.GetLaunchByID(ctx, id)
	if err != nil {
		log.Printf("❌ Failed to get launch by ID: %v", err)
		return mo.None[*models.Launch](), fmt.Errorf("failed to get launch by ID: %w", err)
	}

	if !launchOpt.IsPresent() {
		log.Printf("📋 Completed successfully - launch not found")
		return mo.None[*models.Launch](), nil
	}

	launch := launchOpt.MustGet()
	log.Printf("📋 Completed successfully - found launch of type: %s", launch.MessageType)
	return mo.Some(launch), nil
}

// CleanupExpired purges expired login states and launches. Returns the total
// number of rows removed.
func (s *LaunchesService) CleanupExpired(ctx context.Context) (int64, error) {
	log.Printf("📋 Starting to clean up expired launch records")

	states, err := s.launchStatesRepo.DeleteExpiredLaunchStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login states: %w", err)
	}

	launches, err := s.launchesRepo.DeleteExpiredLaunches(ctx)
	if err != nil {
		return states, fmt.Errorf("failed to delete expired launches: %w", err)
	}

	total := states + launches
	log.Printf("📋 Completed successfully - removed %d expired records", total)
	return total, nil
}
