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

type PostgresLaunchesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for launches table
var launchesColumns = []string{
	"id",
	"platform_id",
	"subject",
	"message_type",
	"deployment_id",
	"claims",
	"expires_at",
	"created_at",
	"updated_at",
}

func NewPostgresLaunchesRepository(db *sqlx.DB, schema string) *PostgresLaunchesRepository {
	return &PostgresLaunchesRepository{db: db, schema: schema}
}

func (r *PostgresLaunchesRepository) CreateLaunch(ctx context.Context, launch *models.Launch) error {
	db := dbtx.GetTransactional(ctx, r.db)

	insertColumns := []string{
		"id",
		"platform_id",
		"subject",
		"message_type",
		"deployment_id",
		"claims",
		"expires_at",
		"created_at",
		"updated_at",
	}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(launchesColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.launches (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		launch.ID,
		launch.PlatformID,
		launch.Subject,
		launch.MessageType,
		launch.DeploymentID,
		launch.Claims,
		launch.ExpiresAt,
	).StructScan(launch)
	if err != nil {
		return fmt.Errorf("failed to create launch: %w", err)
	}

	return nil
}

func (r *PostgresLaunchesRepository) GetLaunchByID(
	ctx context.Context,
	id string,
) (mo.Option[*models.Launch], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	if !core.IsValidULID(id) {
		return mo.None[*models.Launch](), fmt.Errorf("launch ID must be a valid ULID")
	}

	columnsStr := strings.Join(launchesColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.launches
		WHERE id = $1 AND expires_at > NOW()`, columnsStr, r.schema)

	launch := &models.Launch{}
	err := db.QueryRowxContext(ctx, query, id).StructScan(launch)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Launch](), nil
		}
		return mo.None[*models.Launch](), fmt.Errorf("failed to get launch by ID: %w", err)
	}

	return mo.Some(launch), nil
}

// WasNonceUsed reports whether a launch has already been recorded with the
// given nonce for the platform. Guards against id_token replay.
func (r *PostgresLaunchesRepository) WasNonceUsed(ctx context.Context, platformID, nonce string) (bool, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	if nonce == "" {
		return false, fmt.Errorf("nonce cannot be empty")
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s.launches
		WHERE platform_id = $1 AND claims->>'nonce' = $2`, r.schema)

	var count int
	err := db.GetContext(ctx, &count, query, platformID, nonce)
	if err != nil {
		return false, fmt.Errorf("failed to check nonce usage: %w", err)
	}

	return count > 0, nil
}

// DeleteExpiredLaunches purges launches past their expiry. Returns the number
// of rows removed.
func (r *PostgresLaunchesRepository) DeleteExpiredLaunches(ctx context.Context) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		DELETE FROM %s.launches
		WHERE expires_at <= NOW()`, r.schema)

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired launches: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected, nil
}
