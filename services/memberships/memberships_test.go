package memberships

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ltitool/clients"
	"ltitool/clients/platform"
	"ltitool/core"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services/grades"
	"ltitool/services/tokens"
	"ltitool/testutils"
)

func launchWithNRPS() *models.Launch {
	claims := models.LaunchClaims{"sub": "user-1"}
	claims[lti.ClaimNRPS] = map[string]any{
		"context_memberships_url": "https://platform.example.com/memberships",
	}

	return &models.Launch{
		ID:         core.NewID("lnc"),
		PlatformID: core.NewID("plt"),
		Subject:    "user-1",
		Claims:     claims,
	}
}

func TestGetScoreboard(t *testing.T) {
	instructorRole := "http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"
	learnerRole := "http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"

	t.Run("merges the roster with results", func(t *testing.T) {
		platformClient := &platform.MockPlatformClient{}
		tokensService := &tokens.MockPlatformTokensService{}
		gradesService := &grades.MockGradesService{}
		service := NewMembershipsService(platformClient, tokensService, gradesService)

		testPlatform := testutils.NewTestPlatform()
		launch := launchWithNRPS()

		tokensService.On("GetAccessToken", mock.Anything, testPlatform, []string{lti.ScopeContextMembershipReadonly}).
			Return("token-123", nil)
		platformClient.On("GetMemberships", mock.Anything, "token-123", "https://platform.example.com/memberships").
			Return([]*clients.Member{
				{UserID: "user-1", Name: "Ada Lovelace", Email: "ada@example.com", Roles: []string{learnerRole}},
				{UserID: "user-2", Name: "Grace Hopper", Roles: []string{instructorRole}},
			}, nil)
		gradesService.On("GetScores", mock.Anything, launch, testPlatform).
			Return([]*clients.Result{
				{UserID: "user-1", ResultScore: decimal.NewFromInt(80), ResultMaximum: decimal.NewFromInt(100)},
			}, nil)

		entries, err := service.GetScoreboard(context.Background(), launch, testPlatform)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "user-1", entries[0].UserID)
		assert.True(t, entries[0].IsLearner)
		assert.False(t, entries[0].IsInstructor)
		require.NotNil(t, entries[0].ScoreGiven)
		assert.True(t, entries[0].ScoreGiven.Equal(decimal.NewFromInt(80)))

		assert.Equal(t, "user-2", entries[1].UserID)
		assert.True(t, entries[1].IsInstructor)
		assert.Nil(t, entries[1].ScoreGiven)
	})

	t.Run("returns the roster when results are unavailable", func(t *testing.T) {
		platformClient := &platform.MockPlatformClient{}
		tokensService := &tokens.MockPlatformTokensService{}
		gradesService := &grades.MockGradesService{}
		service := NewMembershipsService(platformClient, tokensService, gradesService)

		testPlatform := testutils.NewTestPlatform()
		launch := launchWithNRPS()

		tokensService.On("GetAccessToken", mock.Anything, testPlatform, mock.Anything).Return("token-123", nil)
		platformClient.On("GetMemberships", mock.Anything, "token-123", mock.Anything).
			Return([]*clients.Member{
				{UserID: "user-1", Name: "Ada Lovelace", Roles: []string{learnerRole}},
			}, nil)
		gradesService.On("GetScores", mock.Anything, launch, testPlatform).Return(nil, assert.AnError)

		entries, err := service.GetScoreboard(context.Background(), launch, testPlatform)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].ScoreGiven)
	})

	t.Run("classifies teaching assistants as instructors", func(t *testing.T) {
		platformClient := &platform.MockPlatformClient{}
		tokensService := &tokens.MockPlatformTokensService{}
		gradesService := &grades.MockGradesService{}
		service := NewMembershipsService(platformClient, tokensService, gradesService)

		testPlatform := testutils.NewTestPlatform()
		launch := launchWithNRPS()

		tokensService.On("GetAccessToken", mock.Anything, testPlatform, mock.Anything).Return("token-123", nil)
		platformClient.On("GetMemberships", mock.Anything, "token-123", mock.Anything).
			Return([]*clients.Member{
				{
					UserID: "user-3",
					Roles:  []string{"http://purl.imsglobal.org/vocab/lis/v2/membership/Instructor#TeachingAssistant"},
				},
			}, nil)
		gradesService.On("GetScores", mock.Anything, launch, testPlatform).Return([]*clients.Result{}, nil)

		entries, err := service.GetScoreboard(context.Background(), launch, testPlatform)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsInstructor)
	})

	t.Run("errors when the launch has no memberships endpoint", func(t *testing.T) {
		service := NewMembershipsService(
			&platform.MockPlatformClient{},
			&tokens.MockPlatformTokensService{},
			&grades.MockGradesService{},
		)

		launch := &models.Launch{ID: core.NewID("lnc"), Claims: models.LaunchClaims{}}
		_, err := service.GetScoreboard(context.Background(), launch, testutils.NewTestPlatform())
		assert.ErrorContains(t, err, "no names and role provisioning services endpoint")
	})
}
