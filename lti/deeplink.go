package lti

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ltitool/models"
)

// DeepLinkResource is a content item returned to the platform when an
// instructor completes a deep linking launch.
type DeepLinkResource struct {
	Title        string
	URL          string
	CustomParams map[string]string
}

// DeepLinkReturnURL extracts the platform's deep link return URL from the
// deep_linking_settings claim of a cached launch.
func DeepLinkReturnURL(claims models.LaunchClaims) (string, error) {
	settings := claims.GetMap(ClaimDeepLinkingSettings)
	returnURL, _ := settings["deep_link_return_url"].(string)
	if returnURL == "" {
		return "", fmt.Errorf("launch has no deep link return URL")
	}
	return returnURL, nil
}

// SignDeepLinkingResponse builds and signs the LtiDeepLinkingResponse JWT for
// the given launch. The tool acts as the issuer (identified by the client ID)
// and the platform issuer is the audience. The opaque `data` value from the
// deep linking settings is echoed back when the platform provided one.
func SignDeepLinkingResponse(
	launch *models.Launch,
	platform *models.Platform,
	key *models.ToolKey,
	resources []DeepLinkResource,
) (string, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("failed to parse tool private key: %w", err)
	}

	contentItems := make([]map[string]any, 0, len(resources))
	for _, resource := range resources {
		item := map[string]any{
			"type":  "ltiResourceLink",
			"title": resource.Title,
			"url":   resource.URL,
		}
		if len(resource.CustomParams) > 0 {
			item["custom"] = resource.CustomParams
		}
		contentItems = append(contentItems, item)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   platform.ClientID,
		"aud":   []string{platform.Issuer},
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(5 * time.Minute)),
		"nonce": uuid.NewString(),
	}
	claims[ClaimMessageType] = MessageTypeDeepLinkingResponse
	claims[ClaimVersion] = VersionLTI1p3
	claims[ClaimDeploymentID] = launch.DeploymentID
	claims[ClaimContentItems] = contentItems

	settings := launch.Claims.GetMap(ClaimDeepLinkingSettings)
	if data, ok := settings["data"].(string); ok && data != "" {
		claims[ClaimDeepLinkingData] = data
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = key.Kid

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign deep linking response: %w", err)
	}
	return signed, nil
}
