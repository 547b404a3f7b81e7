package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltitool/db"
	"ltitool/testutils"
)

type usersFixture struct {
	service   *UsersService
	usersRepo *db.PostgresUsersRepository
}

func setupUsersService(t *testing.T) *usersFixture {
	cfg, err := testutils.LoadTestConfig()
	require.NoError(t, err)

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })

	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	return &usersFixture{
		service:   NewUsersService(usersRepo),
		usersRepo: usersRepo,
	}
}

func TestUsersService_GetOrCreateUser(t *testing.T) {
	f := setupUsersService(t)
	ctx := context.Background()

	t.Run("returns the same user on repeated calls", func(t *testing.T) {
		existing := testutils.CreateTestUser(t, f.usersRepo)

		user, err := f.service.GetOrCreateUser(ctx, existing.AuthProvider, existing.AuthProviderID, existing.Email)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, user.ID)

		again, err := f.service.GetOrCreateUser(ctx, existing.AuthProvider, existing.AuthProviderID, existing.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("creates a user on first sight", func(t *testing.T) {
		user, err := f.service.GetOrCreateUser(ctx, "clerk", "clerk-user-42", "someone@example.com")
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "clerk", user.AuthProvider)
		assert.Equal(t, "clerk-user-42", user.AuthProviderID)
		assert.Equal(t, "someone@example.com", user.Email)
	})

	t.Run("rejects an empty auth provider", func(t *testing.T) {
		_, err := f.service.GetOrCreateUser(ctx, "", "some-id", "someone@example.com")
		assert.ErrorContains(t, err, "auth_provider cannot be empty")
	})

	t.Run("rejects an empty auth provider id", func(t *testing.T) {
		_, err := f.service.GetOrCreateUser(ctx, "clerk", "", "someone@example.com")
		assert.ErrorContains(t, err, "auth_provider_id cannot be empty")
	})
}
