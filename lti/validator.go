package lti

import (
	"fmt"
	"time"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/golang-jwt/jwt/v5"

	"ltitool/models"
)

// ClockSkewLeeway is the allowance applied to exp/iat/nbf validation to
// tolerate clock drift between the platform and the tool.
const ClockSkewLeeway = 60 * time.Second

// VerifyIDToken validates a message launch id_token against the platform
// registration and its published key set. It checks the RS256 signature, the
// issuer, the audience, expiry (with leeway) and the structural LTI claims:
// version, message type and deployment ID. Nonce freshness is the caller's
// responsibility since it requires the stored login state.
func VerifyIDToken(idToken string, platform *models.Platform, keySet *jose.JSONWebKeySet) (models.LaunchClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(ClockSkewLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	mapClaims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(idToken, mapClaims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("id_token header is missing kid")
		}
		return RSAPublicKeyByKid(keySet, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("id_token is not valid")
	}

	claims := models.LaunchClaims(mapClaims)

	issuer, err := mapClaims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("failed to read id_token issuer: %w", err)
	}
	if issuer != platform.Issuer {
		return nil, fmt.Errorf("id_token issuer %q does not match registered issuer %q", issuer, platform.Issuer)
	}

	audience, err := mapClaims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("failed to read id_token audience: %w", err)
	}
	if !containsAudience(audience, platform.ClientID) {
		return nil, fmt.Errorf("id_token audience does not include client ID %q", platform.ClientID)
	}

	if claims.GetString("sub") == "" {
		return nil, fmt.Errorf("id_token is missing sub claim")
	}

	if version := claims.GetString(ClaimVersion); version != VersionLTI1p3 {
		return nil, fmt.Errorf("unsupported LTI version %q", version)
	}

	messageType := claims.GetString(ClaimMessageType)
	if messageType != MessageTypeResourceLink && messageType != MessageTypeDeepLinkingRequest {
		return nil, fmt.Errorf("unsupported message type %q", messageType)
	}

	deploymentID := claims.GetString(ClaimDeploymentID)
	if deploymentID == "" {
		return nil, fmt.Errorf("id_token is missing deployment_id claim")
	}
	if !platform.HasDeploymentID(deploymentID) {
		return nil, fmt.Errorf("deployment ID %q is not registered for this platform", deploymentID)
	}

	return claims, nil
}

func containsAudience(audience jwt.ClaimStrings, clientID string) bool {
	for _, aud := range audience {
		if aud == clientID {
			return true
		}
	}
	return false
}
