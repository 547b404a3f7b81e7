package registration

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ltitool/clients"
	"ltitool/clients/platform"
	"ltitool/config"
	"ltitool/core"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services/platforms"
	"ltitool/services/txmanager"
)

type registrationFixture struct {
	platformClient   *platform.MockPlatformClient
	platformsService *platforms.MockPlatformsService
	txManager        *txmanager.MockTransactionManager
	service          *RegistrationService
}

func newRegistrationFixture() *registrationFixture {
	f := &registrationFixture{
		platformClient:   &platform.MockPlatformClient{},
		platformsService: &platforms.MockPlatformsService{},
		txManager:        &txmanager.MockTransactionManager{},
	}
	f.service = NewRegistrationService(f.platformClient, f.platformsService, f.txManager, config.ToolConfig{
		BaseURL:     "https://tool.example.com",
		Name:        "Game Tool",
		Description: "A breakout game",
	})
	return f
}

func (f *registrationFixture) expectTransaction() {
	f.txManager.On("WithTransaction", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(context.Context) error)
			_ = fn(context.Background())
		}).Return(nil)
}

func moodleOpenIDConfiguration() *clients.OpenIDConfiguration {
	return &clients.OpenIDConfiguration{
		Issuer:                "https://moodle.example.com",
		AuthorizationEndpoint: "https://moodle.example.com/auth",
		TokenEndpoint:         "https://moodle.example.com/token",
		JWKSURI:               "https://moodle.example.com/jwks",
		RegistrationEndpoint:  "https://moodle.example.com/register",
		PlatformConfiguration: &clients.PlatformConfiguration{ProductFamilyCode: "moodle"},
	}
}

func TestRegisterPlatform(t *testing.T) {
	t.Run("registers the tool and stores the platform", func(t *testing.T) {
		f := newRegistrationFixture()
		f.expectTransaction()

		f.platformClient.On("FetchOpenIDConfiguration", mock.Anything, "https://moodle.example.com/.well-known/openid-configuration").
			Return(moodleOpenIDConfiguration(), nil)
		f.platformClient.On(
			"RegisterClient",
			mock.Anything,
			"https://moodle.example.com/register",
			"reg-token",
			mock.MatchedBy(func(req *clients.ClientRegistrationRequest) bool {
				return req.ApplicationType == "web" &&
					req.TokenEndpointAuthMethod == "private_key_jwt" &&
					req.InitiateLoginURI == "https://tool.example.com/lti/login" &&
					req.JWKSURI == "https://tool.example.com/lti/jwks" &&
					req.ToolConfiguration != nil &&
					req.ToolConfiguration.Domain == "tool.example.com" &&
					len(req.ToolConfiguration.Messages) == 1 &&
					req.ToolConfiguration.Messages[0].Type == lti.MessageTypeDeepLinkingRequest
			}),
		).Return(&clients.ClientRegistrationResponse{
			ClientID:          "client-42",
			ToolConfiguration: &clients.ToolConfiguration{DeploymentID: "deployment-7"},
		}, nil)
		f.platformsService.On("CreatePlatform", mock.Anything, mock.MatchedBy(func(p *models.Platform) bool {
			return p.Issuer == "https://moodle.example.com" &&
				p.ClientID == "client-42" &&
				p.Name == "moodle" &&
				len(p.DeploymentIDs) == 1 && p.DeploymentIDs[0] == "deployment-7"
		})).Return(&models.Platform{
			ID:       core.NewID("plt"),
			Issuer:   "https://moodle.example.com",
			ClientID: "client-42",
		}, nil)

		created, err := f.service.RegisterPlatform(
			context.Background(),
			"https://moodle.example.com/.well-known/openid-configuration",
			"reg-token",
		)
		require.NoError(t, err)
		assert.Equal(t, "client-42", created.ClientID)
		f.platformsService.AssertExpectations(t)
	})

	t.Run("requests all five advantage scopes", func(t *testing.T) {
		f := newRegistrationFixture()
		f.expectTransaction()

		f.platformClient.On("FetchOpenIDConfiguration", mock.Anything, mock.Anything).
			Return(moodleOpenIDConfiguration(), nil)
		f.platformClient.On("RegisterClient", mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(req *clients.ClientRegistrationRequest) bool {
				granted := strings.Fields(req.Scope)
				for _, scope := range []string{
					lti.ScopeLineItem,
					lti.ScopeLineItemReadonly,
					lti.ScopeResultReadonly,
					lti.ScopeScore,
					lti.ScopeContextMembershipReadonly,
				} {
					if !slices.Contains(granted, scope) {
						return false
					}
				}
				return true
			}),
		).Return(&clients.ClientRegistrationResponse{ClientID: "client-42"}, nil)
		f.platformsService.On("CreatePlatform", mock.Anything, mock.Anything).
			Return(&models.Platform{ID: core.NewID("plt"), ClientID: "client-42"}, nil)

		_, err := f.service.RegisterPlatform(context.Background(), "https://moodle.example.com/openid", "")
		require.NoError(t, err)
	})

	t.Run("falls back to the issuer when the platform has no product family code", func(t *testing.T) {
		f := newRegistrationFixture()
		f.expectTransaction()

		openidConfig := moodleOpenIDConfiguration()
		openidConfig.PlatformConfiguration = nil
		f.platformClient.On("FetchOpenIDConfiguration", mock.Anything, mock.Anything).Return(openidConfig, nil)
		f.platformClient.On("RegisterClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&clients.ClientRegistrationResponse{ClientID: "client-42"}, nil)
		f.platformsService.On("CreatePlatform", mock.Anything, mock.MatchedBy(func(p *models.Platform) bool {
			return p.Name == "https://moodle.example.com"
		})).Return(&models.Platform{ID: core.NewID("plt"), ClientID: "client-42"}, nil)

		_, err := f.service.RegisterPlatform(context.Background(), "https://moodle.example.com/openid", "")
		require.NoError(t, err)
		f.platformsService.AssertExpectations(t)
	})

	t.Run("rejects an issuer on a different host", func(t *testing.T) {
		f := newRegistrationFixture()

		openidConfig := moodleOpenIDConfiguration()
		openidConfig.Issuer = "https://evil.example.com"
		f.platformClient.On("FetchOpenIDConfiguration", mock.Anything, mock.Anything).Return(openidConfig, nil)

		_, err := f.service.RegisterPlatform(context.Background(), "https://moodle.example.com/openid", "")
		assert.ErrorContains(t, err, "does not match")
		f.platformClient.AssertNotCalled(t, "RegisterClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("errors when the platform has no registration endpoint", func(t *testing.T) {
		f := newRegistrationFixture()

		openidConfig := moodleOpenIDConfiguration()
		openidConfig.RegistrationEndpoint = ""
		f.platformClient.On("FetchOpenIDConfiguration", mock.Anything, mock.Anything).Return(openidConfig, nil)

		_, err := f.service.RegisterPlatform(context.Background(), "https://moodle.example.com/openid", "")
		assert.ErrorContains(t, err, "registration endpoint")
		f.platformClient.AssertNotCalled(t, "RegisterClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("errors when the platform returns no client_id", func(t *testing.T) {
		f := newRegistrationFixture()

		f.platformClient.On("FetchOpenIDConfiguration", mock.Anything, mock.Anything).
			Return(moodleOpenIDConfiguration(), nil)
		f.platformClient.On("RegisterClient", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&clients.ClientRegistrationResponse{}, nil)

		_, err := f.service.RegisterPlatform(context.Background(), "https://moodle.example.com/openid", "")
		assert.ErrorContains(t, err, "client_id")
	})

	t.Run("requires the openid configuration URL", func(t *testing.T) {
		f := newRegistrationFixture()

		_, err := f.service.RegisterPlatform(context.Background(), "", "")
		assert.ErrorContains(t, err, "cannot be empty")
	})
}
