package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macroscoach/backend/internal/storage"
)

// PostgresDayModesStorage is the Postgres implementation for the weekly
// ON/OFF schedule.
type PostgresDayModesStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresDayModesStorage(pool *pgxpool.Pool) *PostgresDayModesStorage {
	return &PostgresDayModesStorage{pool: pool}
}

func (s *PostgresDayModesStorage) ListDayModes(ctx context.Context, userID uuid.UUID) ([]storage.DayMode, error) {
	const query = `
		SELECT id, user_id, weekday, is_on
		FROM day_modes
		WHERE user_id = $1
		ORDER BY weekday ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.DayMode, 0)
	for rows.Next() {
		var row storage.DayMode
		if err := rows.Scan(&row.ID, &row.UserID, &row.Weekday, &row.IsOn); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (s *PostgresDayModesStorage) ReplaceDayModes(ctx context.Context, userID uuid.UUID, rows []storage.DayModeUpsert) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM day_modes WHERE user_id = $1`, userID); err != nil {
		return err
	}

	const insert = `
		INSERT INTO day_modes (id, user_id, weekday, is_on)
		VALUES ($1, $2, $3, $4)
	`
	for _, row := range rows {
		if _, err := tx.Exec(ctx, insert, uuid.New(), userID, row.Weekday, row.IsOn); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
