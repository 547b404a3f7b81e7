package clients

import (
	"context"

	jose "github.com/go-jose/go-jose/v3"
)

// PlatformClient is the HTTP surface of a registered LTI platform: OpenID
// discovery, client registration, the token endpoint and the LTI Advantage
// service endpoints (AGS and NRPS).
type PlatformClient interface {
	FetchOpenIDConfiguration(ctx context.Context, configURL string) (*OpenIDConfiguration, error)
	RegisterClient(
		ctx context.Context,
		registrationEndpoint, registrationToken string,
		req *ClientRegistrationRequest,
	) (*ClientRegistrationResponse, error)
	FetchKeySet(ctx context.Context, keySetURL string) (*jose.JSONWebKeySet, error)
	RequestAccessToken(
		ctx context.Context,
		tokenURL, clientAssertion string,
		scopes []string,
	) (*AccessToken, error)
	GetLineItems(ctx context.Context, accessToken, lineItemsURL, tag string) ([]*LineItem, error)
	CreateLineItem(ctx context.Context, accessToken, lineItemsURL string, item *LineItem) (*LineItem, error)
	PostScore(ctx context.Context, accessToken, lineItemURL string, score *Score) error
	GetResults(ctx context.Context, accessToken, lineItemURL string) ([]*Result, error)
	GetMemberships(ctx context.Context, accessToken, membershipsURL string) ([]*Member, error)
}
