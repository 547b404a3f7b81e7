package platforms

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"ltitool/core"
	"ltitool/db"
	"ltitool/models"
)

type PlatformsService struct {
	platformsRepo *db.PostgresPlatformsRepository
}

func NewPlatformsService(repo *db.PostgresPlatformsRepository) *PlatformsService {
	return &PlatformsService{platformsRepo: repo}
}

func (s *PlatformsService) CreatePlatform(ctx context.Context, platform *models.Platform) (*models.Platform, error) {
	log.Printf("📋 Starting to create platform for issuer: %s", platform.Issuer)

	if platform.Issuer == "" {
		return nil, fmt.Errorf("issuer cannot be empty")
	}
	if platform.ClientID == "" {
		return nil, fmt.Errorf("client ID cannot be empty")
	}
	if platform.AuthLoginURL == "" {
		return nil, fmt.Errorf("auth login URL cannot be empty")
	}
	if platform.AuthTokenURL == "" {
		return nil, fmt.Errorf("auth token URL cannot be empty")
	}
	if platform.KeySetURL == "" {
		return nil, fmt.Errorf("key set URL cannot be empty")
	}

	if platform.ID == "" {
		platform.ID = core.NewID("plt")
	}

	if err := s.platformsRepo.CreatePlatform(ctx, platform); err != nil {
		return nil, fmt.Errorf("failed to create platform in database: %w", err)
	}

	log.Printf("📋 Completed successfully - created platform with ID: %s for issuer: %s", platform.ID, platform.Issuer)
	return platform, nil
}

func (s *PlatformsService) GetPlatformByID(ctx context.Context, id string) (mo.Option[*models.Platform], error) {
	log.Printf("📋 Starting to get platform by ID: %s", id)
	if !core.IsValidULID(id) {
		return mo.None[*models.Platform](), fmt.Errorf("platform ID must be a valid ULID")
	}

	platformOpt, err := s.platformsRepo.GetPlatformByID(ctx, id)
	if err != nil {
		log.Printf("❌ Failed to get platform by ID: %v", err)
		return mo.None[*models.Platform](), fmt.Errorf("failed to get platform by ID: %w", err)
	}

	if !platformOpt.IsPresent() {
		log.Printf("📋 Completed successfully - platform not found")
		return mo.None[*models.Platform](), nil
	}

	platform := platformOpt.MustGet()
	log.Printf("📋 Completed successfully - found platform for issuer: %s", platform.Issuer)
	return mo.Some(platform), nil
}

func (s *PlatformsService) GetPlatformByIssuer(
	ctx context.Context,
	issuer, clientID string,
) (mo.Option[*models.Platform], error) {
	log.Printf("📋 Starting to get platform by issuer: %s", issuer)
	if issuer == "" {
		return mo.None[*models.Platform](), fmt.Errorf("issuer cannot be empty")
	}

	platformOpt, err := s.platformsRepo.GetPlatformByIssuer(ctx, issuer, clientID)
	if err != nil {
		log.Printf("❌ Failed to get platform by issuer: %v", err)
		return mo.None[*models.Platform](), fmt.Errorf("failed to get platform by issuer: %w", err)
	}

	if !platformOpt.IsPresent() {
		log.Printf("📋 Completed successfully - platform not found")
		return mo.None[*models.Platform](), nil
	}

	platform := platformOpt.MustGet()
	log.Printf("📋 Completed successfully - found platform with ID: %s", platform.ID)
	return mo.Some(platform), nil
}

func (s *PlatformsService) GetAllPlatforms(ctx context.Context) ([]*models.Platform, error) {
	log.Printf("📋 Starting to get all platforms")
	platforms, err := s.platformsRepo.GetAllPlatforms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all platforms: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d platforms", len(platforms))
	return platforms, nil
}

func (s *PlatformsService) DeletePlatform(ctx context.Context, id string) error {
	log.Printf("📋 Starting to delete platform: %s", id)
	if !core.IsValidULID(id) {
		return fmt.Errorf("platform ID must be a valid ULID")
	}

	if err := s.platformsRepo.DeletePlatformByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete platform: %w", err)
	}

	log.Printf("📋 Completed successfully - deleted platform: %s", id)
	return nil
}
