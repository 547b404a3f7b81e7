package lti

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltitool/core"
	"ltitool/models"
	"ltitool/testutils"
)

func newDeepLinkLaunch(platform *models.Platform) *models.Launch {
	return &models.Launch{
		ID:           core.NewID("lnc"),
		PlatformID:   platform.ID,
		Subject:      "user-1",
		MessageType:  MessageTypeDeepLinkingRequest,
		DeploymentID: "deployment-1",
		Claims: models.LaunchClaims{
			ClaimDeepLinkingSettings: map[string]any{
				"deep_link_return_url": "https://platform.example.com/deep-link-return",
				"data":                 "opaque-data",
			},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestDeepLinkReturnURL(t *testing.T) {
	t.Run("extracts the return URL", func(t *testing.T) {
		launch := newDeepLinkLaunch(testutils.NewTestPlatform())
		returnURL, err := DeepLinkReturnURL(launch.Claims)
		require.NoError(t, err)
		assert.Equal(t, "https://platform.example.com/deep-link-return", returnURL)
	})

	t.Run("errors when settings are missing", func(t *testing.T) {
		_, err := DeepLinkReturnURL(models.LaunchClaims{})
		assert.Error(t, err)
	})
}

func TestSignDeepLinkingResponse(t *testing.T) {
	platform := testutils.NewTestPlatform()
	toolKey := testutils.NewTestToolKey(t)
	launch := newDeepLinkLaunch(platform)

	resources := []DeepLinkResource{{
		Title:        "Play the game",
		URL:          "https://tool.example.com/lti/launch",
		CustomParams: map[string]string{"difficulty": "normal"},
	}}

	signed, err := SignDeepLinkingResponse(launch, platform, toolKey, resources)
	require.NoError(t, err)

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(toolKey.PublicKeyPEM))
	require.NoError(t, err)

	mapClaims := jwt.MapClaims{}
	token, err := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})).
		ParseWithClaims(signed, mapClaims, func(t *jwt.Token) (any, error) {
			return publicKey, nil
		})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, toolKey.Kid, token.Header["kid"])
	assert.Equal(t, platform.ClientID, mapClaims["iss"])
	assert.Equal(t, MessageTypeDeepLinkingResponse, mapClaims[ClaimMessageType])
	assert.Equal(t, VersionLTI1p3, mapClaims[ClaimVersion])
	assert.Equal(t, "deployment-1", mapClaims[ClaimDeploymentID])
	assert.Equal(t, "opaque-data", mapClaims[ClaimDeepLinkingData])

	contentItems, ok := mapClaims[ClaimContentItems].([]any)
	require.True(t, ok)
	require.Len(t, contentItems, 1)

	item, ok := contentItems[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ltiResourceLink", item["type"])
	assert.Equal(t, "Play the game", item["title"])
	assert.Equal(t, "https://tool.example.com/lti/launch", item["url"])
}
