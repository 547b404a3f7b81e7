package grades

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"ltitool/clients"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services"
)

const (
	lineItemTag   = "score"
	lineItemLabel = "Score"
)

var lineItemMaximum = decimal.NewFromInt(100)

// GradesService publishes scores and reads results through the platform's
// Assignment and Grade Services endpoints advertised in the launch claims.
type GradesService struct {
	platformClient clients.PlatformClient
	tokensService  services.PlatformTokensService
}

func NewGradesService(
	platformClient clients.PlatformClient,
	tokensService services.PlatformTokensService,
) *GradesService {
	return &GradesService{
		platformClient: platformClient,
		tokensService:  tokensService,
	}
}

func (s *GradesService) PublishScore(
	ctx context.Context,
	launch *models.Launch,
	platform *models.Platform,
	score decimal.Decimal,
	activityProgress, gradingProgress string,
) error {
	log.Printf("📋 Starting to publish score for launch: %s", launch.ID)

	accessToken, err := s.tokensService.GetAccessToken(ctx, platform, []string{
		lti.ScopeLineItem,
		lti.ScopeScore,
	})
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	lineItem, err := s.findOrCreateLineItem(ctx, accessToken, launch)
	if err != nil {
		return fmt.Errorf("failed to resolve line item: %w", err)
	}

	payload := &clients.Score{
		UserID:           launch.Subject,
		ScoreGiven:       score,
		ScoreMaximum:     lineItem.ScoreMaximum,
		ActivityProgress: activityProgress,
		GradingProgress:  gradingProgress,
		Timestamp:        time.Now().Format(time.RFC3339),
	}
	if err := s.platformClient.PostScore(ctx, accessToken, lineItem.ID, payload); err != nil {
		return fmt.Errorf("failed to post score: %w", err)
	}

	log.Printf("📋 Completed successfully - published score for subject: %s", launch.Subject)
	return nil
}

func (s *GradesService) GetScores(
	ctx context.Context,
	launch *models.Launch,
	platform *models.Platform,
) ([]*clients.Result, error) {
	log.Printf("📋 Starting to get scores for launch: %s", launch.ID)

	accessToken, err := s.tokensService.GetAccessToken(ctx, platform, []string{
		lti.ScopeLineItem,
		lti.ScopeResultReadonly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	lineItem, err := s.findOrCreateLineItem(ctx, accessToken, launch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve line item: %w", err)
	}

	results, err := s.platformClient.GetResults(ctx, accessToken, lineItem.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	log.Printf("📋 Completed successfully - got %d results", len(results))
	return results, nil
}

// findOrCreateLineItem resolves the tool's gradebook column. A launch tied to
// a single line item advertises it directly in the AGS claim, otherwise the
// column is looked up by tag in the lineitems container and created on first
// use.
func (s *GradesService) findOrCreateLineItem(
	ctx context.Context,
	accessToken string,
	launch *models.Launch,
) (*clients.LineItem, error) {
	agsClaim := launch.Claims.GetMap(lti.ClaimAGSEndpoint)

	if lineItemURL, ok := agsClaim["lineitem"].(string); ok && lineItemURL != "" {
		return &clients.LineItem{
			ID:           lineItemURL,
			Label:        lineItemLabel,
			ScoreMaximum: lineItemMaximum,
		}, nil
	}

	lineItemsURL, ok := agsClaim["lineitems"].(string)
	if !ok || lineItemsURL == "" {
		return nil, fmt.Errorf("launch has no assignment and grade services endpoint")
	}

	items, err := s.platformClient.GetLineItems(ctx, accessToken, lineItemsURL, lineItemTag)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	for _, item := range items {
		if item.Tag == lineItemTag {
			return item, nil
		}
	}

	resourceLink := launch.Claims.GetMap(lti.ClaimResourceLink)
	resourceLinkID, _ := resourceLink["id"].(string)

	created, err := s.platformClient.CreateLineItem(ctx, accessToken, lineItemsURL, &clients.LineItem{
		Label:          lineItemLabel,
		ScoreMaximum:   lineItemMaximum,
		Tag:            lineItemTag,
		ResourceLinkID: resourceLinkID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create line item: %w", err)
	}
	return created, nil
}
