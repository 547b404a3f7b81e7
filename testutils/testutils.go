package testutils

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"ltitool/appctx"
	"ltitool/config"
	"ltitool/core"
	"ltitool/db"
	"ltitool/models"
)

// LoadTestConfig loads configuration for tests from environment variables
func LoadTestConfig() (*config.AppConfig, error) {
	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../.env.test") // From services/ directory
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
	}, nil
}

// CreateTestUser creates a test user with a unique ID to avoid constraint violations
func CreateTestUser(t *testing.T, usersRepo *db.PostgresUsersRepository) *models.User {
	testUserID := uuid.New().String()
	testUser, err := usersRepo.CreateUser(context.Background(), "test", testUserID, testUserID+"@example.com")
	require.NoError(t, err, "Failed to create test user")
	return testUser
}

// CreateTestContext creates a context with the given user set for testing
func CreateTestContext(user *models.User) context.Context {
	ctx := context.Background()
	return appctx.SetUser(ctx, user)
}

// NewTestPlatform builds an in-memory platform registration with unique
// issuer and client values
func NewTestPlatform() *models.Platform {
	suffix := uuid.New().String()
	return &models.Platform{
		ID:           core.NewID("plt"),
		Issuer:       "https://platform-" + suffix + ".example.com",
		ClientID:     "client-" + suffix,
		Name:         "Test Platform",
		AuthLoginURL: "https://platform-" + suffix + ".example.com/auth",
		AuthTokenURL: "https://platform-" + suffix + ".example.com/token",
		KeySetURL:    "https://platform-" + suffix + ".example.com/jwks",
	}
}

// NewTestToolKey generates a real RSA keypair encoded the way the tool keys
// repository stores them
func NewTestToolKey(t *testing.T) *models.ToolKey {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate RSA key")

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err, "Failed to marshal public key")
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	return &models.ToolKey{
		ID:            core.NewID("tk"),
		Kid:           uuid.NewString(),
		PrivateKeyPEM: string(privatePEM),
		PublicKeyPEM:  string(publicPEM),
		IsActive:      true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}
