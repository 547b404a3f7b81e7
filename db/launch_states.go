package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	dbtx "ltitool/db/tx"
	"ltitool/models"
)

type PostgresLaunchStatesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for launch_states table
var launchStatesColumns = []string{
	"id",
	"state",
	"nonce",
	"platform_id",
	"target_link_uri",
	"consumed",
	"expires_at",
	"created_at",
	"updated_at",
}

func NewPostgresLaunchStatesRepository(db *sqlx.DB, schema string) *PostgresLaunchStatesRepository {
	return &PostgresLaunchStatesRepository{db: db, schema: schema}
}

func (r *PostgresLaunchStatesRepository) CreateLaunchState(ctx context.Context, state *models.LaunchState) error {
	db := dbtx.GetTransactional(ctx, r.db)

	insertColumns := []string{
		"id",
		"state",
		"nonce",
		"platform_id",
		"target_link_uri",
		"consumed",
		"expires_at",
		"created_at",
		"updated_at",
	}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(launchStatesColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.launch_states (%s)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, NOW(), NOW())
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		state.ID,
		state.State,
		state.Nonce,
		state.PlatformID,
		state.TargetLinkURI,
		state.ExpiresAt,
	).StructScan(state)
	if err != nil {
		return fmt.Errorf("failed to create launch state: %w", err)
	}

	return nil
}

// ConsumeLaunchState atomically marks an unexpired, unconsumed state record as
// consumed and returns it. A replayed state finds no matching row and returns
// None.
func (r *PostgresLaunchStatesRepository) ConsumeLaunchState(
	ctx context.Context,
	state string,
) (mo.Option[*models.LaunchState], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	if state == "" {
		return mo.None[*models.LaunchState](), fmt.Errorf("state cannot be empty")
	}

	returningStr := strings.Join(launchStatesColumns, ", ")
	query := fmt.Sprintf(`
		UPDATE %s.launch_states
		SET consumed = TRUE, updated_at = NOW()
		WHERE state = $1 AND consumed = FALSE AND expires_at > NOW()
		RETURNING %s`, r.schema, returningStr)

	record := &models.LaunchState{}
	err := db.QueryRowxContext(ctx, query, state).StructScan(record)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.LaunchState](), nil
		}
		return mo.None[*models.LaunchState](), fmt.Errorf("failed to consume launch state: %w", err)
	}

	return mo.Some(record), nil
}

// DeleteExpiredLaunchStates purges consumed and expired state records.
// Returns the number of rows removed.
func (r *PostgresLaunchStatesRepository) DeleteExpiredLaunchStates(ctx context.Context) (int64, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		DELETE FROM %s.launch_states
		WHERE consumed = TRUE OR expires_at <= NOW()`, r.schema)

	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired launch states: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected, nil
}
