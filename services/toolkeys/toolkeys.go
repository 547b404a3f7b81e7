package toolkeys

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"ltitool/core"
	"ltitool/db"
	"ltitool/lti"
	"ltitool/models"
	"ltitool/services"
)

const rsaKeyBits = 2048

type ToolKeysService struct {
	toolKeysRepo *db.PostgresToolKeysRepository
	txManager    services.TransactionManager
}

func NewToolKeysService(repo *db.PostgresToolKeysRepository, txManager services.TransactionManager) *ToolKeysService {
	return &ToolKeysService{toolKeysRepo: repo, txManager: txManager}
}

func (s *ToolKeysService) GenerateToolKey(ctx context.Context, activate bool) (*models.ToolKey, error) {
	log.Printf("📋 Starting to generate tool key")

	privateKey, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	key := &models.ToolKey{
		ID:            core.NewID("tk"),
		Kid:           uuid.NewString(),
		PrivateKeyPEM: string(privatePEM),
		PublicKeyPEM:  string(publicPEM),
		IsActive:      activate,
	}

	if err := s.toolKeysRepo.CreateToolKey(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to store tool key: %w", err)
	}

	log.Printf("📋 Completed successfully - generated tool key with kid: %s", key.Kid)
	return key, nil
}

func (s *ToolKeysService) GetActiveToolKey(ctx context.Context) (mo.Option[*models.ToolKey], error) {
	log.Printf("📋 Starting to get active tool key")

	keyOpt, err := s.toolKeysRepo.GetActiveToolKey(ctx)
	if err != nil {
		log.Printf("❌ Failed to get active tool key: %v", err)
		return mo.None[*models.ToolKey](), fmt.Errorf("failed to get active tool key: %w", err)
	}

	if !keyOpt.IsPresent() {
		log.Printf("📋 Completed successfully - no active tool key")
		return mo.None[*models.ToolKey](), nil
	}

	key := keyOpt.MustGet()
	log.Printf("📋 Completed successfully - active tool key kid: %s", key.Kid)
	return mo.Some(key), nil
}

// RotateToolKey deactivates the current signing key and generates a fresh
// active one. Old keys stay published in the JWKS so in-flight messages
// remain verifiable.
func (s *ToolKeysService) RotateToolKey(ctx context.Context) (*models.ToolKey, error) {
	log.Printf("📋 Starting to rotate tool key")

	var rotated *models.ToolKey
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.toolKeysRepo.DeactivateToolKeys(txCtx); err != nil {
			return fmt.Errorf("failed to deactivate tool keys: %w", err)
		}

		key, err := s.GenerateToolKey(txCtx, true)
		if err != nil {
			return err
		}

		rotated = key
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rotate tool key: %w", err)
	}

	log.Printf("📋 Completed successfully - rotated tool key, new kid: %s", rotated.Kid)
	return rotated, nil
}

// DeleteToolKey removes a rotated-out key from the JWKS. The active signing
// key cannot be deleted.
func (s *ToolKeysService) DeleteToolKey(ctx context.Context, id string) error {
	log.Printf("📋 Starting to delete tool key: %s", id)

	if err := s.toolKeysRepo.DeleteToolKeyByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tool key: %w", err)
	}

	log.Printf("📋 Completed successfully - deleted tool key: %s", id)
	return nil
}

func (s *ToolKeysService) GetToolJWKS(ctx context.Context) (*jose.JSONWebKeySet, error) {
	log.Printf("📋 Starting to build tool JWKS")

	keys, err := s.toolKeysRepo.GetAllToolKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool keys: %w", err)
	}

	keySet, err := lti.BuildToolJWKS(keys)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool JWKS: %w", err)
	}

	log.Printf("📋 Completed successfully - built JWKS with %d keys", len(keySet.Keys))
	return keySet, nil
}
