package platform

import (
	"context"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/mock"

	"ltitool/clients"
)

// MockPlatformClient is a mock implementation of the clients.PlatformClient interface
type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) FetchOpenIDConfiguration(
	ctx context.Context,
	configURL string,
) (*clients.OpenIDConfiguration, error) {
	args := m.Called(ctx, configURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.OpenIDConfiguration), args.Error(1)
}

func (m *MockPlatformClient) RegisterClient(
	ctx context.Context,
	registrationEndpoint, registrationToken string,
	req *clients.ClientRegistrationRequest,
) (*clients.ClientRegistrationResponse, error) {
	args := m.Called(ctx, registrationEndpoint, registrationToken, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.ClientRegistrationResponse), args.Error(1)
}

func (m *MockPlatformClient) FetchKeySet(ctx context.Context, keySetURL string) (*jose.JSONWebKeySet, error) {
	args := m.Called(ctx, keySetURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jose.JSONWebKeySet), args.Error(1)
}

func (m *MockPlatformClient) RequestAccessToken(
	ctx context.Context,
	tokenURL, clientAssertion string,
	scopes []string,
) (*clients.AccessToken, error) {
	args := m.Called(ctx, tokenURL, clientAssertion, scopes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.AccessToken), args.Error(1)
}

func (m *MockPlatformClient) GetLineItems(
	ctx context.Context,
	accessToken, lineItemsURL, tag string,
) ([]*clients.LineItem, error) {
	args := m.Called(ctx, accessToken, lineItemsURL, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.LineItem), args.Error(1)
}

func (m *MockPlatformClient) CreateLineItem(
	ctx context.Context,
	accessToken, lineItemsURL string,
	item *clients.LineItem,
) (*clients.LineItem, error) {
	args := m.Called(ctx, accessToken, lineItemsURL, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.LineItem), args.Error(1)
}

func (m *MockPlatformClient) PostScore(
	ctx context.Context,
	accessToken, lineItemURL string,
	score *clients.Score,
) error {
	args := m.Called(ctx, accessToken, lineItemURL, score)
	return args.Error(0)
}

func (m *MockPlatformClient) GetResults(
	ctx context.Context,
	accessToken, lineItemURL string,
) ([]*clients.Result, error) {
	args := m.Called(ctx, accessToken, lineItemURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.Result), args.Error(1)
}

func (m *MockPlatformClient) GetMemberships(
	ctx context.Context,
	accessToken, membershipsURL string,
) ([]*clients.Member, error) {
	args := m.Called(ctx, accessToken, membershipsURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clients.Member), args.Error(1)
}
