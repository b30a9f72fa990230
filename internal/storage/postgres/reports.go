package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macroscoach/backend/internal/storage"
)

// PostgresReportsStorage is the Postgres implementation for report metadata.
type PostgresReportsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresReportsStorage(pool *pgxpool.Pool) *PostgresReportsStorage {
	return &PostgresReportsStorage{pool: pool}
}

func (s *PostgresReportsStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO reports (id, user_id, format, from_date, to_date, object_key, size_bytes, status, error, created_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		report.ID,
		report.UserID,
		report.Format,
		report.FromDate,
		report.ToDate,
		report.ObjectKey,
		report.SizeBytes,
		report.Status,
		report.Error,
		report.CreatedAt,
		report.Data,
	)
	return err
}

func (s *PostgresReportsStorage) GetReport(ctx context.Context, userID, reportID uuid.UUID) (*storage.ReportMeta, error) {
	const query = `
		SELECT id, user_id, format, from_date, to_date, object_key, size_bytes, status, error, created_at, data
		FROM reports
		WHERE id = $1 AND user_id = $2
	`

	var r storage.ReportMeta
	err := s.pool.QueryRow(ctx, query, reportID, userID).Scan(
		&r.ID,
		&r.UserID,
		&r.Format,
		&r.FromDate,
		&r.ToDate,
		&r.ObjectKey,
		&r.SizeBytes,
		&r.Status,
		&r.Error,
		&r.CreatedAt,
		&r.Data,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresReportsStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	// data stays out of listings, payloads can be large
	const query = `
		SELECT id, user_id, format, from_date, to_date, object_key, size_bytes, status, error, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.ReportMeta, 0)
	for rows.Next() {
		var r storage.ReportMeta
		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.Format,
			&r.FromDate,
			&r.ToDate,
			&r.ObjectKey,
			&r.SizeBytes,
			&r.Status,
			&r.Error,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *PostgresReportsStorage) DeleteReport(ctx context.Context, userID, reportID uuid.UUID) error {
	const query = `DELETE FROM reports WHERE id = $1 AND user_id = $2`

	res, err := s.pool.Exec(ctx, query, reportID, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
