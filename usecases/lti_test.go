package usecases

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ltitool/clients/platform"
	"ltitool/config"
	"ltitool/core"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services/grades"
	"ltitool/services/launches"
	"ltitool/services/memberships"
	"ltitool/services/platforms"
	"ltitool/services/toolkeys"
	"ltitool/testutils"
)

type ltiUseCaseFixture struct {
	platformsService   *platforms.MockPlatformsService
	launchesService    *launches.MockLaunchesService
	toolKeysService    *toolkeys.MockToolKeysService
	gradesService      *grades.MockGradesService
	membershipsService *memberships.MockMembershipsService
	platformClient     *platform.MockPlatformClient
	useCase            *LTIUseCase
}

func newLTIUseCaseFixture() *ltiUseCaseFixture {
	f := &ltiUseCaseFixture{
		platformsService:   &platforms.MockPlatformsService{},
		launchesService:    &launches.MockLaunchesService{},
		toolKeysService:    &toolkeys.MockToolKeysService{},
		gradesService:      &grades.MockGradesService{},
		membershipsService: &memberships.MockMembershipsService{},
		platformClient:     &platform.MockPlatformClient{},
	}
	f.useCase = NewLTIUseCase(
		f.platformsService,
		f.launchesService,
		f.toolKeysService,
		f.gradesService,
		f.membershipsService,
		f.platformClient,
		config.ToolConfig{
			BaseURL: "https://tool.example.com",
			Name:    "Game Tool",
		},
	)
	return f
}

func signLaunchToken(t *testing.T, key *models.ToolKey, claims jwt.MapClaims) string {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKeyPEM))
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.Kid

	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

func launchClaimsFor(testPlatform *models.Platform, messageType string) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   testPlatform.Issuer,
		"aud":   testPlatform.ClientID,
		"sub":   "user-1",
		"nonce": "nonce-1",
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	claims[lti.ClaimMessageType] = messageType
	claims[lti.ClaimVersion] = lti.VersionLTI1p3
	claims[lti.ClaimDeploymentID] = "deployment-1"
	return claims
}

func TestInitiateLogin(t *testing.T) {
	t.Run("builds the platform authorization redirect", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		state := &models.LaunchState{
			ID:         core.NewID("lst"),
			State:      "state-token",
			Nonce:      "nonce-value",
			PlatformID: testPlatform.ID,
		}

		f.platformsService.On("GetPlatformByIssuer", mock.Anything, testPlatform.Issuer, testPlatform.ClientID).
			Return(mo.Some(testPlatform), nil)
		f.launchesService.On("CreateLoginState", mock.Anything, testPlatform.ID, "https://tool.example.com/lti/launch").
			Return(state, nil)

		redirectURL, err := f.useCase.InitiateLogin(context.Background(), LoginParams{
			Issuer:    testPlatform.Issuer,
			ClientID:  testPlatform.ClientID,
			LoginHint: "hint-1",
		})
		require.NoError(t, err)

		parsed, err := url.Parse(redirectURL)
		require.NoError(t, err)
		query := parsed.Query()
		assert.Equal(t, "openid", query.Get("scope"))
		assert.Equal(t, "id_token", query.Get("response_type"))
		assert.Equal(t, "form_post", query.Get("response_mode"))
		assert.Equal(t, "none", query.Get("prompt"))
		assert.Equal(t, testPlatform.ClientID, query.Get("client_id"))
		assert.Equal(t, "https://tool.example.com/lti/launch", query.Get("redirect_uri"))
		assert.Equal(t, "state-token", query.Get("state"))
		assert.Equal(t, "nonce-value", query.Get("nonce"))
		assert.Equal(t, "hint-1", query.Get("login_hint"))

		f.platformsService.AssertExpectations(t)
		f.launchesService.AssertExpectations(t)
	})

	t.Run("passes lti_message_hint and target_link_uri through", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()

		f.platformsService.On("GetPlatformByIssuer", mock.Anything, testPlatform.Issuer, "").
			Return(mo.Some(testPlatform), nil)
		f.launchesService.On("CreateLoginState", mock.Anything, testPlatform.ID, "https://tool.example.com/custom").
			Return(&models.LaunchState{State: "s", Nonce: "n", PlatformID: testPlatform.ID}, nil)

		redirectURL, err := f.useCase.InitiateLogin(context.Background(), LoginParams{
			Issuer:         testPlatform.Issuer,
			LoginHint:      "hint-1",
			TargetLinkURI:  "https://tool.example.com/custom",
			LTIMessageHint: "message-hint",
		})
		require.NoError(t, err)

		parsed, err := url.Parse(redirectURL)
		require.NoError(t, err)
		assert.Equal(t, "message-hint", parsed.Query().Get("lti_message_hint"))
	})

	t.Run("rejects an unknown issuer", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		f.platformsService.On("GetPlatformByIssuer", mock.Anything, "https://unknown.example.com", "").
			Return(mo.None[*models.Platform](), nil)

		_, err := f.useCase.InitiateLogin(context.Background(), LoginParams{
			Issuer:    "https://unknown.example.com",
			LoginHint: "hint-1",
		})
		assert.ErrorContains(t, err, "no platform is registered")
	})

	t.Run("rejects a missing login_hint", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		_, err := f.useCase.InitiateLogin(context.Background(), LoginParams{Issuer: "https://p.example.com"})
		assert.ErrorContains(t, err, "login_hint")
	})
}

func TestHandleLaunch(t *testing.T) {
	t.Run("validates and records a resource link launch", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		platformKey := testutils.NewTestToolKey(t)
		keySet, err := lti.BuildToolJWKS([]*models.ToolKey{platformKey})
		require.NoError(t, err)

		idToken := signLaunchToken(t, platformKey, launchClaimsFor(testPlatform, lti.MessageTypeResourceLink))
		stateRecord := &models.LaunchState{
			ID:         core.NewID("lst"),
			State:      "state-token",
			Nonce:      "nonce-1",
			PlatformID: testPlatform.ID,
		}
		launch := &models.Launch{ID: core.NewID("lnc"), MessageType: lti.MessageTypeResourceLink}

		f.launchesService.On("ConsumeLoginState", mock.Anything, "state-token").
			Return(mo.Some(stateRecord), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).
			Return(mo.Some(testPlatform), nil)
		f.platformClient.On("FetchKeySet", mock.Anything, testPlatform.KeySetURL).
			Return(keySet, nil)
		f.launchesService.On("ValidateNonce", mock.Anything, testPlatform.ID, "nonce-1", "nonce-1").
			Return(nil)
		f.launchesService.On("CreateLaunch", mock.Anything, testPlatform.ID, mock.Anything).
			Return(launch, nil)

		got, err := f.useCase.HandleLaunch(context.Background(), "state-token", idToken)
		require.NoError(t, err)
		assert.Equal(t, launch.ID, got.ID)

		f.launchesService.AssertExpectations(t)
		f.platformClient.AssertExpectations(t)
	})

	t.Run("rejects a replayed state", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		f.launchesService.On("ConsumeLoginState", mock.Anything, "stale-state").
			Return(mo.None[*models.LaunchState](), nil)

		_, err := f.useCase.HandleLaunch(context.Background(), "stale-state", "some-token")
		assert.ErrorContains(t, err, "state")
	})

	t.Run("rejects a nonce mismatch", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		platformKey := testutils.NewTestToolKey(t)
		keySet, err := lti.BuildToolJWKS([]*models.ToolKey{platformKey})
		require.NoError(t, err)

		idToken := signLaunchToken(t, platformKey, launchClaimsFor(testPlatform, lti.MessageTypeResourceLink))
		stateRecord := &models.LaunchState{
			State:      "state-token",
			Nonce:      "expected-nonce",
			PlatformID: testPlatform.ID,
		}

		f.launchesService.On("ConsumeLoginState", mock.Anything, "state-token").
			Return(mo.Some(stateRecord), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).
			Return(mo.Some(testPlatform), nil)
		f.platformClient.On("FetchKeySet", mock.Anything, testPlatform.KeySetURL).
			Return(keySet, nil)
		f.launchesService.On("ValidateNonce", mock.Anything, testPlatform.ID, "nonce-1", "expected-nonce").
			Return(assert.AnError)

		_, err = f.useCase.HandleLaunch(context.Background(), "state-token", idToken)
		assert.ErrorContains(t, err, "nonce")
	})

	t.Run("skips nonce validation for IMS reference deep link launches", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		testPlatform.Issuer = "http://imsglobal.org"
		platformKey := testutils.NewTestToolKey(t)
		keySet, err := lti.BuildToolJWKS([]*models.ToolKey{platformKey})
		require.NoError(t, err)

		idToken := signLaunchToken(t, platformKey, launchClaimsFor(testPlatform, lti.MessageTypeDeepLinkingRequest))
		stateRecord := &models.LaunchState{
			State:      "state-token",
			Nonce:      "different-nonce",
			PlatformID: testPlatform.ID,
		}
		launch := &models.Launch{ID: core.NewID("lnc"), MessageType: lti.MessageTypeDeepLinkingRequest}

		f.launchesService.On("ConsumeLoginState", mock.Anything, "state-token").
			Return(mo.Some(stateRecord), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).
			Return(mo.Some(testPlatform), nil)
		f.platformClient.On("FetchKeySet", mock.Anything, testPlatform.KeySetURL).
			Return(keySet, nil)
		f.launchesService.On("CreateLaunch", mock.Anything, testPlatform.ID, mock.Anything).
			Return(launch, nil)

		_, err = f.useCase.HandleLaunch(context.Background(), "state-token", idToken)
		require.NoError(t, err)

		f.launchesService.AssertNotCalled(t, "ValidateNonce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetLaunchView(t *testing.T) {
	f := newLTIUseCaseFixture()
	testPlatform := testutils.NewTestPlatform()
	claims := models.LaunchClaims{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	}
	claims[lti.ClaimRoles] = []any{lti.RoleInstructor}
	claims[lti.ClaimCustom] = map[string]any{"special_word": "axolotl"}
	claims[lti.ClaimAGSEndpoint] = map[string]any{"lineitems": "https://platform.example.com/lineitems"}
	claims[lti.ClaimNRPS] = map[string]any{"context_memberships_url": "https://platform.example.com/members"}

	launch := &models.Launch{
		ID:          core.NewID("lnc"),
		PlatformID:  testPlatform.ID,
		Subject:     "user-1",
		MessageType: lti.MessageTypeResourceLink,
		Claims:      claims,
	}

	f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
	f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)

	view, err := f.useCase.GetLaunchView(context.Background(), launch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", view.Name)
	assert.True(t, view.IsInstructor)
	assert.False(t, view.IsLearner)
	assert.False(t, view.IsDeepLink)
	assert.True(t, view.HasGrades)
	assert.True(t, view.HasMemberships)
	assert.Equal(t, "axolotl", view.CustomParams["special_word"])
}

func TestGetLaunchView_UnknownRole(t *testing.T) {
	f := newLTIUseCaseFixture()
	testPlatform := testutils.NewTestPlatform()
	claims := models.LaunchClaims{"name": "Nobody"}
	claims[lti.ClaimRoles] = []any{"http://purl.imsglobal.org/vocab/lis/v2/membership#Mentor"}

	launch := &models.Launch{
		ID:          core.NewID("lnc"),
		PlatformID:  testPlatform.ID,
		Subject:     "user-1",
		MessageType: lti.MessageTypeResourceLink,
		Claims:      claims,
	}

	f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
	f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)

	_, err := f.useCase.GetLaunchView(context.Background(), launch.ID)
	assert.ErrorContains(t, err, "no recognized role")
}

func TestCompleteDeepLink(t *testing.T) {
	newDeepLinkLaunch := func(testPlatform *models.Platform, roles []any) *models.Launch {
		return &models.Launch{
			ID:           core.NewID("lnc"),
			PlatformID:   testPlatform.ID,
			Subject:      "user-1",
			MessageType:  lti.MessageTypeDeepLinkingRequest,
			DeploymentID: "deployment-1",
			Claims: models.LaunchClaims{
				lti.ClaimRoles: roles,
				lti.ClaimDeepLinkingSettings: map[string]any{
					"deep_link_return_url": "https://platform.example.com/return",
				},
			},
		}
	}

	t.Run("signs a response for an instructor", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		toolKey := testutils.NewTestToolKey(t)
		launch := newDeepLinkLaunch(testPlatform, []any{lti.RoleInstructor})

		f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)
		f.toolKeysService.On("GetActiveToolKey", mock.Anything).Return(mo.Some(toolKey), nil)

		result, err := f.useCase.CompleteDeepLink(context.Background(), launch.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://platform.example.com/return", result.ReturnURL)
		assert.NotEmpty(t, result.JWT)
	})

	t.Run("rejects a learner", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		launch := newDeepLinkLaunch(testPlatform, []any{lti.RoleLearner})

		f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)

		_, err := f.useCase.CompleteDeepLink(context.Background(), launch.ID, nil)
		assert.ErrorContains(t, err, "instructors")
	})

	t.Run("rejects a resource link launch", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		launch := newDeepLinkLaunch(testPlatform, []any{lti.RoleInstructor})
		launch.MessageType = lti.MessageTypeResourceLink

		f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)

		_, err := f.useCase.CompleteDeepLink(context.Background(), launch.ID, nil)
		assert.ErrorContains(t, err, "not a deep linking request")
	})
}

func TestPublishScore(t *testing.T) {
	t.Run("defaults to a completed fully graded score", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		launch := &models.Launch{ID: core.NewID("lnc"), PlatformID: testPlatform.ID, Subject: "user-1"}
		score := decimal.NewFromInt(87)

		f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)
		f.gradesService.On("PublishScore", mock.Anything, launch, testPlatform, score, "Completed", "FullyGraded").
			Return(nil)

		err := f.useCase.PublishScore(context.Background(), launch.ID, score, "", "")
		require.NoError(t, err)
		f.gradesService.AssertExpectations(t)
	})

	t.Run("passes caller-provided progress values through", func(t *testing.T) {
		f := newLTIUseCaseFixture()
		testPlatform := testutils.NewTestPlatform()
		launch := &models.Launch{ID: core.NewID("lnc"), PlatformID: testPlatform.ID, Subject: "user-1"}
		score := decimal.NewFromInt(40)

		f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
		f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)
		f.gradesService.On("PublishScore", mock.Anything, launch, testPlatform, score, "InProgress", "Pending").
			Return(nil)

		err := f.useCase.PublishScore(context.Background(), launch.ID, score, "InProgress", "Pending")
		require.NoError(t, err)
		f.gradesService.AssertExpectations(t)
	})

	t.Run("rejects a score outside the 0-100 range", func(t *testing.T) {
		f := newLTIUseCaseFixture()

		err := f.useCase.PublishScore(context.Background(), core.NewID("lnc"), decimal.NewFromInt(101), "", "")
		assert.ErrorContains(t, err, "between 0 and 100")

		err = f.useCase.PublishScore(context.Background(), core.NewID("lnc"), decimal.NewFromInt(-1), "", "")
		assert.ErrorContains(t, err, "between 0 and 100")
	})
}

func TestGetScoreboard(t *testing.T) {
	f := newLTIUseCaseFixture()
	testPlatform := testutils.NewTestPlatform()
	launch := &models.Launch{ID: core.NewID("lnc"), PlatformID: testPlatform.ID}
	entries := []*models.ScoreboardEntry{{UserID: "user-1", IsLearner: true}}

	f.launchesService.On("GetLaunchByID", mock.Anything, launch.ID).Return(mo.Some(launch), nil)
	f.platformsService.On("GetPlatformByID", mock.Anything, testPlatform.ID).Return(mo.Some(testPlatform), nil)
	f.membershipsService.On("GetScoreboard", mock.Anything, launch, testPlatform).Return(entries, nil)

	got, err := f.useCase.GetScoreboard(context.Background(), launch.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "user-1", got[0].UserID)
}
