package toolkeys

import (
	"context"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"ltitool/models"
)

// MockToolKeysService is a mock implementation of the ToolKeysService interface
type MockToolKeysService struct {
	mock.Mock
}

func (m *MockToolKeysService) GenerateToolKey(ctx context.Context, activate bool) (*models.ToolKey, error) {
	args := m.Called(ctx, activate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ToolKey), args.Error(1)
}

func (m *MockToolKeysService) GetActiveToolKey(ctx context.Context) (mo.Option[*models.ToolKey], error) {
	args := m.Called(ctx)
	return args.Get(0).(mo.Option[*models.ToolKey]), args.Error(1)
}

func (m *MockToolKeysService) RotateToolKey(ctx context.Context) (*models.ToolKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ToolKey), args.Error(1)
}

func (m *MockToolKeysService) DeleteToolKey(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockToolKeysService) GetToolJWKS(ctx context.Context) (*jose.JSONWebKeySet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jose.JSONWebKeySet), args.Error(1)
}
