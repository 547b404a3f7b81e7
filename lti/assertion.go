package lti

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ltitool/models"
)

// SignClientAssertion builds the private_key_jwt client assertion for the
// OAuth2 client-credentials grant against the platform's token endpoint. The
// audience is the platform's registered audience when one was configured,
// otherwise the token endpoint URL.
func SignClientAssertion(platform *models.Platform, key *models.ToolKey) (string, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("failed to parse tool private key: %w", err)
	}

	audience := platform.AuthTokenURL
	if platform.Audience != nil && *platform.Audience != "" {
		audience = *platform.Audience
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": platform.ClientID,
		"sub": platform.ClientID,
		"aud": []string{audience},
		"jti": uuid.NewString(),
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(5 * time.Minute)),
	})
	token.Header["kid"] = key.Kid

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign client assertion: %w", err)
	}
	return signed, nil
}
