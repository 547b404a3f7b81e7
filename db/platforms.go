package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"ltitool/core"
	dbtx "ltitool/db/tx"
	"ltitool/models"
)

type PostgresPlatformsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for platforms table
var platformsColumns = []string{
	"id",
	"issuer",
	"client_id",
	"name",
	"auth_login_url",
	"auth_token_url",
	"key_set_url",
	"audience",
	"deployment_ids",
	"created_at",
	"updated_at",
}

func NewPostgresPlatformsRepository(db *sqlx.DB, schema string) *PostgresPlatformsRepository {
	return &PostgresPlatformsRepository{db: db, schema: schema}
}

func (r *PostgresPlatformsRepository) CreatePlatform(ctx context.Context, platform *models.Platform) error {
	db := dbtx.GetTransactional(ctx, r.db)

	insertColumns := []string{
		"id",
		"issuer",
		"client_id",
		"name",
		"auth_login_url",
		"auth_token_url",
		"key_set_url",
		"audience",
		"deployment_ids",
		"created_at",
		"updated_at",
	}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(platformsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.platforms (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		platform.ID,
		platform.Issuer,
		platform.ClientID,
		platform.Name,
		platform.AuthLoginURL,
		platform.AuthTokenURL,
		platform.KeySetURL,
		platform.Audience,
		pq.Array(platform.DeploymentIDs),
	).StructScan(platform)
	if err != nil {
		return fmt.Errorf("failed to create platform: %w", err)
	}

	return nil
}

func (r *PostgresPlatformsRepository) GetPlatformByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Platform], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	if !core.IsValidULID(id) {
		return mo.None[*models.Platform](), fmt.Errorf("platform ID must be a valid ULID")
	}

	columnsStr := strings.Join(platformsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.platforms
		WHERE id = $1`, columnsStr, r.schema)

	platform := &models.Platform{}
	err := db.QueryRowxContext(ctx, query, id).StructScan(platform)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Platform](), nil
		}
		return mo.None[*models.Platform](), fmt.Errorf("failed to get platform by ID: %w", err)
	}

	return mo.Some(platform), nil
}

// GetPlatformByIssuer resolves a platform registration by issuer. When the
// login initiation carries a client_id hint it is used to disambiguate
// multi-registration issuers; otherwise the single registration for the
// issuer is returned.
func (r *PostgresPlatformsRepository) GetPlatformByIssuer(
	ctx context.Context,
	issuer, clientID string,
) (mo.Option[*models.Platform], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	if issuer == "" {
		return mo.None[*models.Platform](), fmt.Errorf("issuer cannot be empty")
	}

	columnsStr := strings.Join(platformsColumns, ", ")

	var query string
	var args []any
	if clientID != "" {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s.platforms
			WHERE issuer = $1 AND client_id = $2`, columnsStr, r.schema)
		args = []any{issuer, clientID}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s.platforms
			WHERE issuer = $1
			ORDER BY created_at ASC
			LIMIT 1`, columnsStr, r.schema)
		args = []any{issuer}
	}

	platform := &models.Platform{}
	err := db.QueryRowxContext(ctx, query, args...).StructScan(platform)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Platform](), nil
		}
		return mo.None[*models.Platform](), fmt.Errorf("failed to get platform by issuer: %w", err)
	}

	return mo.Some(platform), nil
}

func (r *PostgresPlatformsRepository) GetAllPlatforms(ctx context.Context) ([]*models.Platform, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(platformsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.platforms
		ORDER BY created_at DESC`, columnsStr, r.schema)

	var platforms []*models.Platform
	err := db.SelectContext(ctx, &platforms, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all platforms: %w", err)
	}

	return platforms, nil
}

func (r *PostgresPlatformsRepository) UpdatePlatformDeploymentIDs(
	ctx context.Context,
	id string,
	deploymentIDs []string,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	if !core.IsValidULID(id) {
		return fmt.Errorf("platform ID must be a valid ULID")
	}

	query := fmt.Sprintf(`
		UPDATE %s.platforms
		SET deployment_ids = $1, updated_at = NOW()
		WHERE id = $2`, r.schema)

	result, err := db.ExecContext(ctx, query, pq.Array(deploymentIDs), id)
	if err != nil {
		return fmt.Errorf("failed to update platform deployment IDs: %w", err)
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

func (r *PostgresPlatformsRepository) DeletePlatformByID(ctx context.Context, id string) error {
	db := dbtx.GetTransactional(ctx, r.db)

	if !core.IsValidULID(id) {
		return fmt.Errorf("platform ID must be a valid ULID")
	}

	query := fmt.Sprintf(`DELETE FROM %s.platforms WHERE id = $1`, r.schema)

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete platform: %w", err)
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
