package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"ltitool/core"
	dbtx "ltitool/db/tx"
	"ltitool/models"
)

type PostgresToolKeysRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for tool_keys table
var toolKeysColumns = []string{
	"id",
	"kid",
	"private_key_pem",
	"public_key_pem",
	"is_active",
	"created_at",
	"updated_at",
}

func NewPostgresToolKeysRepository(db *sqlx.DB, schema string) *PostgresToolKeysRepository {
	return &PostgresToolKeysRepository{db: db, schema: schema}
}

func (r *PostgresToolKeysRepository) CreateToolKey(ctx context.Context, key *models.ToolKey) error {
	db := dbtx.GetTransactional(ctx, r.db)

	insertColumns := []string{"id", "kid", "private_key_pem", "public_key_pem", "is_active", "created_at", "updated_at"}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(toolKeysColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.tool_keys (%s)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(ctx, query, key.ID, key.Kid, key.PrivateKeyPEM, key.PublicKeyPEM, key.IsActive).
		StructScan(key)
	if err != nil {
		return fmt.Errorf("failed to create tool key: %w", err)
	}

	return nil
}

func (r *PostgresToolKeysRepository) GetActiveToolKey(ctx context.Context) (mo.Option[*models.ToolKey], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(toolKeysColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tool_keys
		WHERE is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`, columnsStr, r.schema)

	key := &models.ToolKey{}
	err := db.QueryRowxContext(ctx, query).StructScan(key)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.ToolKey](), nil
		}
		return mo.None[*models.ToolKey](), fmt.Errorf("failed to get active tool key: %w", err)
	}

	return mo.Some(key), nil
}

func (r *PostgresToolKeysRepository) GetAllToolKeys(ctx context.Context) ([]*models.ToolKey, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(toolKeysColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.tool_keys
		ORDER BY created_at DESC`, columnsStr, r.schema)

	var keys []*models.ToolKey
	err := db.SelectContext(ctx, &keys, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all tool keys: %w", err)
	}

	return keys, nil
}

// DeactivateToolKeys clears the active flag on every key. Used within a
// rotation transaction right before inserting the new active key.
func (r *PostgresToolKeysRepository) DeactivateToolKeys(ctx context.Context) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.tool_keys
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE`, r.schema)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to deactivate tool keys: %w", err)
	}

	return nil
}

func (r *PostgresToolKeysRepository) DeleteToolKeyByID(ctx context.Context, id string) error {
	db := dbtx.GetTransactional(ctx, r.db)

	if !core.IsValidULID(id) {
		return fmt.Errorf("tool key ID must be a valid ULID")
	}

	query := fmt.Sprintf(`DELETE FROM %s.tool_keys WHERE id = $1 AND is_active = FALSE`, r.schema)

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete tool key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}
