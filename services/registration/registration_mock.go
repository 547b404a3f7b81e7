package registration

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ltitool/models"
)

// MockRegistrationService is a mock implementation of the RegistrationService interface
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) RegisterPlatform(
	ctx context.Context,
	openidConfigURL, registrationToken string,
) (*models.Platform, error) {
	args := m.Called(ctx, openidConfigURL, registrationToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Platform), args.Error(1)
}
