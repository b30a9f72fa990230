package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macroscoach/backend/internal/storage"
)

// PostgresWeightsStorage is the Postgres implementation for weight logs.
type PostgresWeightsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresWeightsStorage(pool *pgxpool.Pool) *PostgresWeightsStorage {
	return &PostgresWeightsStorage{pool: pool}
}

func (s *PostgresWeightsStorage) AddWeight(ctx context.Context, w *storage.WeightLog) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}

	const query = `
		INSERT INTO weight_logs (id, user_id, measured_at, kg)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, w.ID, w.UserID, w.When, w.Kg)
	return err
}

func (s *PostgresWeightsStorage) ListWeights(ctx context.Context, userID uuid.UUID) ([]storage.WeightLog, error) {
	const query = `
		SELECT id, user_id, measured_at, kg
		FROM weight_logs
		WHERE user_id = $1
		ORDER BY measured_at ASC
	`

	return s.list(ctx, query, userID)
}

func (s *PostgresWeightsStorage) ListWeightsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WeightLog, error) {
	const query = `
		SELECT id, user_id, measured_at, kg
		FROM weight_logs
		WHERE user_id = $1
		  AND measured_at >= $2
		  AND measured_at < $3
		ORDER BY measured_at ASC
	`

	return s.list(ctx, query, userID, from, to)
}

func (s *PostgresWeightsStorage) DeleteWeight(ctx context.Context, userID, weightID uuid.UUID) error {
	const query = `DELETE FROM weight_logs WHERE id = $1 AND user_id = $2`

	res, err := s.pool.Exec(ctx, query, weightID, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresWeightsStorage) list(ctx context.Context, query string, args ...any) ([]storage.WeightLog, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.WeightLog, 0)
	for rows.Next() {
		var w storage.WeightLog
		if err := rows.Scan(&w.ID, &w.UserID, &w.When, &w.Kg); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
