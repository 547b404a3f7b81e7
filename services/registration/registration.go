package registration

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"ltitool/clients"
	"ltitool/config"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services"
)

// RegistrationService implements LTI dynamic registration: it fetches the
// platform's OpenID configuration, registers this tool as a client and stores
// the resulting platform record.
type RegistrationService struct {
	platformClient   clients.PlatformClient
	platformsService services.PlatformsService
	txManager        services.TransactionManager
	toolConfig       config.ToolConfig
}

func NewRegistrationService(
	platformClient clients.PlatformClient,
	platformsService services.PlatformsService,
	txManager services.TransactionManager,
	toolConfig config.ToolConfig,
) *RegistrationService {
	return &RegistrationService{
		platformClient:   platformClient,
		platformsService: platformsService,
		txManager:        txManager,
		toolConfig:       toolConfig,
	}
}

func (s *RegistrationService) RegisterPlatform(
	ctx context.Context,
	openidConfigURL, registrationToken string,
) (*models.Platform, error) {
	log.Printf("📋 Starting to register with platform via: %s", openidConfigURL)

	if openidConfigURL == "" {
		return nil, fmt.Errorf("openid_configuration URL cannot be empty")
	}
	if !s.toolConfig.IsConfigured() {
		return nil, fmt.Errorf("tool base URL is not configured")
	}

	openidConfig, err := s.platformClient.FetchOpenIDConfiguration(ctx, openidConfigURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch openid configuration: %w", err)
	}
	if openidConfig.RegistrationEndpoint == "" {
		return nil, fmt.Errorf("platform does not advertise a registration endpoint")
	}
	if err := verifyIssuer(openidConfigURL, openidConfig.Issuer); err != nil {
		return nil, err
	}

	request, err := s.buildRegistrationRequest()
	if err != nil {
		return nil, fmt.Errorf("failed to build registration request: %w", err)
	}

	response, err := s.platformClient.RegisterClient(
		ctx,
		openidConfig.RegistrationEndpoint,
		registrationToken,
		request,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register client with platform: %w", err)
	}
	if response.ClientID == "" {
		return nil, fmt.Errorf("platform returned an empty client_id")
	}

	platform := &models.Platform{
		Issuer:       openidConfig.Issuer,
		ClientID:     response.ClientID,
		Name:         platformName(openidConfig),
		AuthLoginURL: openidConfig.AuthorizationEndpoint,
		AuthTokenURL: openidConfig.TokenEndpoint,
		KeySetURL:    openidConfig.JWKSURI,
	}
	if response.ToolConfiguration != nil && response.ToolConfiguration.DeploymentID != "" {
		platform.DeploymentIDs = []string{response.ToolConfiguration.DeploymentID}
	}

	var created *models.Platform
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.platformsService.CreatePlatform(txCtx, platform)
		if err != nil {
			return err
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store platform registration: %w", err)
	}

	log.Printf("📋 Completed successfully - registered with platform %s as client: %s", created.Issuer, created.ClientID)
	return created, nil
}

func (s *RegistrationService) buildRegistrationRequest() (*clients.ClientRegistrationRequest, error) {
	baseURL, err := url.Parse(s.toolConfig.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tool base URL: %w", err)
	}

	scopes := []string{
		lti.ScopeLineItem,
		lti.ScopeLineItemReadonly,
		lti.ScopeResultReadonly,
		lti.ScopeScore,
		lti.ScopeContextMembershipReadonly,
	}

	return &clients.ClientRegistrationRequest{
		ApplicationType:         "web",
		ResponseTypes:           []string{"id_token"},
		GrantTypes:              []string{"implicit", "client_credentials"},
		InitiateLoginURI:        s.toolConfig.LoginURL(),
		RedirectURIs:            []string{s.toolConfig.LaunchURL()},
		ClientName:              s.toolConfig.Name,
		JWKSURI:                 s.toolConfig.JWKSURL(),
		TokenEndpointAuthMethod: "private_key_jwt",
		Scope:                   strings.Join(scopes, " "),
		ToolConfiguration: &clients.ToolConfiguration{
			Domain:        baseURL.Host,
			TargetLinkURI: s.toolConfig.LaunchURL(),
			Description:   s.toolConfig.Description,
			Claims:        []string{"iss", "sub", "name", "email"},
			Messages: []clients.ToolMessage{
				{
					Type:          lti.MessageTypeDeepLinkingRequest,
					TargetLinkURI: s.toolConfig.LaunchURL(),
					Label:         s.toolConfig.Name,
				},
			},
		},
	}, nil
}

// verifyIssuer rejects configuration documents whose issuer lives on a
// different host than the document itself.
func verifyIssuer(openidConfigURL, issuer string) error {
	configURL, err := url.Parse(openidConfigURL)
	if err != nil {
		return fmt.Errorf("failed to parse openid configuration URL: %w", err)
	}
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return fmt.Errorf("failed to parse issuer: %w", err)
	}
	if issuerURL.Host == "" || issuerURL.Host != configURL.Host {
		return fmt.Errorf("issuer %q does not match the openid configuration host", issuer)
	}
	return nil
}

func platformName(openidConfig *clients.OpenIDConfiguration) string {
	if openidConfig.PlatformConfiguration != nil && openidConfig.PlatformConfiguration.ProductFamilyCode != "" {
		return openidConfig.PlatformConfiguration.ProductFamilyCode
	}
	return openidConfig.Issuer
}
