package toolkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ltitool/core"
	"ltitool/db"
	"ltitool/services/txmanager"
	"ltitool/testutils"
)

func setupToolKeysService(t *testing.T) *ToolKeysService {
	cfg, err := testutils.LoadTestConfig()
	require.NoError(t, err)

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })

	toolKeysRepo := db.NewPostgresToolKeysRepository(dbConn, cfg.DatabaseSchema)
	txManager := txmanager.NewTransactionManager(dbConn)
	return NewToolKeysService(toolKeysRepo, txManager)
}

func TestToolKeysService_GenerateToolKey(t *testing.T) {
	service := setupToolKeysService(t)

	key, err := service.GenerateToolKey(context.Background(), false)
	require.NoError(t, err)

	assert.NotEmpty(t, key.ID)
	assert.NotEmpty(t, key.Kid)
	assert.False(t, key.IsActive)
	assert.Contains(t, key.PrivateKeyPEM, "RSA PRIVATE KEY")
	assert.Contains(t, key.PublicKeyPEM, "PUBLIC KEY")
}

func TestToolKeysService_RotateToolKey(t *testing.T) {
	service := setupToolKeysService(t)
	ctx := context.Background()

	first, err := service.GenerateToolKey(ctx, true)
	require.NoError(t, err)

	rotated, err := service.RotateToolKey(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Kid, rotated.Kid)
	assert.True(t, rotated.IsActive)

	activeOpt, err := service.GetActiveToolKey(ctx)
	require.NoError(t, err)
	require.True(t, activeOpt.IsPresent())
	assert.Equal(t, rotated.Kid, activeOpt.MustGet().Kid)
}

func TestToolKeysService_DeleteToolKey(t *testing.T) {
	service := setupToolKeysService(t)
	ctx := context.Background()

	t.Run("deletes a rotated-out key", func(t *testing.T) {
		key, err := service.GenerateToolKey(ctx, false)
		require.NoError(t, err)

		err = service.DeleteToolKey(ctx, key.ID)
		require.NoError(t, err)

		keySet, err := service.GetToolJWKS(ctx)
		require.NoError(t, err)
		for _, jwk := range keySet.Keys {
			assert.NotEqual(t, key.Kid, jwk.KeyID, "deleted key should leave the JWKS")
		}
	})

	t.Run("refuses to delete the active signing key", func(t *testing.T) {
		key, err := service.GenerateToolKey(ctx, true)
		require.NoError(t, err)

		err = service.DeleteToolKey(ctx, key.ID)
		assert.True(t, core.IsNotFoundError(err))
	})
}

func TestToolKeysService_GetToolJWKS(t *testing.T) {
	service := setupToolKeysService(t)
	ctx := context.Background()

	key, err := service.GenerateToolKey(ctx, false)
	require.NoError(t, err)

	keySet, err := service.GetToolJWKS(ctx)
	require.NoError(t, err)

	// Rotated-out keys stay published, so the set holds at least the new key
	found := false
	for _, jwk := range keySet.Keys {
		if jwk.KeyID == key.Kid {
			found = true
			assert.Equal(t, "RS256", jwk.Algorithm)
			assert.Equal(t, "sig", jwk.Use)
		}
	}
	assert.True(t, found, "JWKS should contain the generated key")
}
