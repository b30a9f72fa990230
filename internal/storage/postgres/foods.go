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

// PostgresFoodsStorage is the Postgres implementation for the food catalog
// and per-user recents.
type PostgresFoodsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresFoodsStorage(pool *pgxpool.Pool) *PostgresFoodsStorage {
	return &PostgresFoodsStorage{pool: pool}
}

const foodColumns = `id, name, barcode, per100_kcal, per100_pro, per100_carb, per100_fat, grams_per_unit`

func (s *PostgresFoodsStorage) SearchFoods(ctx context.Context, q string, limit int) ([]storage.Food, error) {
	const query = `
		SELECT ` + foodColumns + `
		FROM foods
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFoods(rows)
}

func (s *PostgresFoodsStorage) GetFoodByID(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	const query = `
		SELECT ` + foodColumns + `
		FROM foods
		WHERE id = $1
	`

	food, err := scanFood(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return food, err
}

func (s *PostgresFoodsStorage) GetFoodByBarcode(ctx context.Context, code string) (*storage.Food, error) {
	const query = `
		SELECT ` + foodColumns + `
		FROM foods
		WHERE barcode = $1
	`

	food, err := scanFood(s.pool.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return food, err
}

func (s *PostgresFoodsStorage) UpsertFoodByBarcode(ctx context.Context, code string, food *storage.Food) (*storage.Food, error) {
	const query = `
		INSERT INTO foods (id, name, barcode, per100_kcal, per100_pro, per100_carb, per100_fat, grams_per_unit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (barcode)
		DO UPDATE SET
			name = EXCLUDED.name,
			per100_kcal = EXCLUDED.per100_kcal,
			per100_pro = EXCLUDED.per100_pro,
			per100_carb = EXCLUDED.per100_carb,
			per100_fat = EXCLUDED.per100_fat,
			grams_per_unit = EXCLUDED.grams_per_unit
		RETURNING ` + foodColumns + `
	`

	id := food.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return scanFood(s.pool.QueryRow(ctx, query,
		id,
		food.Name,
		code,
		food.Per100Kcal,
		food.Per100Pro,
		food.Per100Carb,
		food.Per100Fat,
		food.GramsPerUnit,
	))
}

func (s *PostgresFoodsStorage) TouchRecent(ctx context.Context, userID, foodID uuid.UUID) error {
	const query = `
		INSERT INTO recent_foods (id, user_id, food_id, last_used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, food_id)
		DO UPDATE SET last_used = EXCLUDED.last_used
	`

	_, err := s.pool.Exec(ctx, query, uuid.New(), userID, foodID, time.Now().UTC())
	return err
}

func (s *PostgresFoodsStorage) ListRecentFoods(ctx context.Context, userID uuid.UUID, limit int) ([]storage.Food, error) {
	const query = `
		SELECT f.id, f.name, f.barcode, f.per100_kcal, f.per100_pro, f.per100_carb, f.per100_fat, f.grams_per_unit
		FROM recent_foods r
		JOIN foods f ON f.id = r.food_id
		WHERE r.user_id = $1
		ORDER BY r.last_used DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFoods(rows)
}

func scanFood(row pgx.Row) (*storage.Food, error) {
	var f storage.Food
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Barcode,
		&f.Per100Kcal,
		&f.Per100Pro,
		&f.Per100Carb,
		&f.Per100Fat,
		&f.GramsPerUnit,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanFoods(rows pgx.Rows) ([]storage.Food, error) {
	result := make([]storage.Food, 0)
	for rows.Next() {
		var f storage.Food
		if err := rows.Scan(
			&f.ID,
			&f.Name,
			&f.Barcode,
			&f.Per100Kcal,
			&f.Per100Pro,
			&f.Per100Carb,
			&f.Per100Fat,
			&f.GramsPerUnit,
		); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}
