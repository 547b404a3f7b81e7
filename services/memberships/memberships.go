package memberships

import (
	"context"
	"fmt"
	"log"

	"ltitool/clients"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services"
)

// MembershipsService reads the course roster through the platform's Names and
// Role Provisioning Services endpoint and merges it with the tool's scores.
type MembershipsService struct {
	platformClient clients.PlatformClient
	tokensService  services.PlatformTokensService
	gradesService  services.GradesService
}

func NewMembershipsService(
	platformClient clients.PlatformClient,
	tokensService services.PlatformTokensService,
	gradesService services.GradesService,
) *MembershipsService {
	return &MembershipsService{
		platformClient: platformClient,
		tokensService:  tokensService,
		gradesService:  gradesService,
	}
}

func (s *MembershipsService) GetScoreboard(
	ctx context.Context,
	launch *models.Launch,
	platform *models.Platform,
) ([]*models.ScoreboardEntry, error) {
	log.Printf("📋 Starting to build scoreboard for launch: %s", launch.ID)

	nrpsClaim := launch.Claims.GetMap(lti.ClaimNRPS)
	membershipsURL, ok := nrpsClaim["context_memberships_url"].(string)
	if !ok || membershipsURL == "" {
		return nil, fmt.Errorf("launch has no names and role provisioning services endpoint")
	}

	accessToken, err := s.tokensService.GetAccessToken(ctx, platform, []string{
		lti.ScopeContextMembershipReadonly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	members, err := s.platformClient.GetMemberships(ctx, accessToken, membershipsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}

	results, err := s.gradesService.GetScores(ctx, launch, platform)
	if err != nil {
		// A roster without scores is still a scoreboard. Platforms without a
		// gradebook column yet reject the results call.
		log.Printf("⚠️ Could not fetch results for scoreboard: %v", err)
		results = nil
	}

	resultsByUser := make(map[string]*clients.Result, len(results))
	for _, result := range results {
		resultsByUser[result.UserID] = result
	}

	entries := make([]*models.ScoreboardEntry, 0, len(members))
	for _, member := range members {
		entry := &models.ScoreboardEntry{
			UserID:       member.UserID,
			Name:         member.Name,
			Email:        member.Email,
			Roles:        member.Roles,
			IsInstructor: lti.IsInstructor(member.Roles) || lti.IsTeachingAssistant(member.Roles),
			IsLearner:    lti.IsLearner(member.Roles),
		}
		if result, ok := resultsByUser[member.UserID]; ok {
			scoreGiven := result.ResultScore
			scoreMaximum := result.ResultMaximum
			entry.ScoreGiven = &scoreGiven
			entry.ScoreMaximum = &scoreMaximum
		}
		entries = append(entries, entry)
	}

	log.Printf("📋 Completed successfully - built scoreboard with %d members", len(entries))
	return entries, nil
}
