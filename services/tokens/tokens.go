package tokens

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"ltitool/clients"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services"
)

// expiryBuffer is subtracted from the token lifetime so a cached token is
// never handed out moments before the platform rejects it.
const expiryBuffer = 60 * time.Second

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// PlatformTokensService requests OAuth2 access tokens from platform token
// endpoints using private_key_jwt client assertions and caches them per
// platform and scope set until shortly before expiry.
type PlatformTokensService struct {
	platformClient  clients.PlatformClient
	toolKeysService services.ToolKeysService

	mu    sync.Mutex
	cache map[string]cachedToken
}

func NewPlatformTokensService(
	platformClient clients.PlatformClient,
	toolKeysService services.ToolKeysService,
) *PlatformTokensService {
	return &PlatformTokensService{
		platformClient:  platformClient,
		toolKeysService: toolKeysService,
		cache:           map[string]cachedToken{},
	}
}

func (s *PlatformTokensService) GetAccessToken(
	ctx context.Context,
	platform *models.Platform,
	scopes []string,
) (string, error) {
	if len(scopes) == 0 {
		return "", fmt.Errorf("scopes cannot be empty")
	}

	key := cacheKey(platform.ID, scopes)

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.Unlock()
		return cached.token, nil
	}
	s.mu.Unlock()

	log.Printf("📋 Starting to request access token for platform: %s", platform.ID)

	toolKeyOpt, err := s.toolKeysService.GetActiveToolKey(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get active tool key: %w", err)
	}
	if !toolKeyOpt.IsPresent() {
		return "", fmt.Errorf("no active tool key is available")
	}

	assertion, err := lti.SignClientAssertion(platform, toolKeyOpt.MustGet())
	if err != nil {
		return "", fmt.Errorf("failed to sign client assertion: %w", err)
	}

	accessToken, err := s.platformClient.RequestAccessToken(ctx, platform.AuthTokenURL, assertion, scopes)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}

	expiresAt := time.Now().Add(time.Duration(accessToken.ExpiresIn)*time.Second - expiryBuffer)

	s.mu.Lock()
	s.cache[key] = cachedToken{token: accessToken.AccessToken, expiresAt: expiresAt}
	s.mu.Unlock()

	log.Printf("📋 Completed successfully - obtained access token for platform: %s", platform.ID)
	return accessToken.AccessToken, nil
}

func cacheKey(platformID string, scopes []string) string {
	sorted := make([]string, len(scopes))
	copy(sorted, scopes)
	sort.Strings(sorted)
	return platformID + "|" + strings.Join(sorted, " ")
}
