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

// PostgresMealsStorage is the Postgres implementation for meals and items.
type PostgresMealsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresMealsStorage(pool *pgxpool.Pool) *PostgresMealsStorage {
	return &PostgresMealsStorage{pool: pool}
}

func (s *PostgresMealsStorage) CreateMeal(ctx context.Context, meal *storage.Meal) error {
	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertMeal = `
		INSERT INTO meals (id, user_id, eaten_at, slot)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertMeal, meal.ID, meal.UserID, meal.When, meal.Slot); err != nil {
		return err
	}

	const insertItem = `
		INSERT INTO meal_items (id, meal_id, food_id, food_name, grams, pro, carb, fat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range meal.Items {
		item := &meal.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.MealID = meal.ID
		if _, err := tx.Exec(ctx, insertItem,
			item.ID, item.MealID, item.FoodID, item.FoodName,
			item.Grams, item.Pro, item.Carb, item.Fat,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresMealsStorage) GetMeal(ctx context.Context, userID, mealID uuid.UUID) (*storage.Meal, error) {
	const query = `
		SELECT id, user_id, eaten_at, slot
		FROM meals
		WHERE id = $1 AND user_id = $2
	`

	var meal storage.Meal
	err := s.pool.QueryRow(ctx, query, mealID, userID).Scan(
		&meal.ID,
		&meal.UserID,
		&meal.When,
		&meal.Slot,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.loadItems(ctx, []uuid.UUID{meal.ID})
	if err != nil {
		return nil, err
	}
	meal.Items = items[meal.ID]
	return &meal, nil
}

func (s *PostgresMealsStorage) ListMealsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.Meal, error) {
	const query = `
		SELECT id, user_id, eaten_at, slot
		FROM meals
		WHERE user_id = $1
		  AND eaten_at >= $2
		  AND eaten_at < $3
		ORDER BY eaten_at ASC
	`

	return s.listMeals(ctx, query, userID, from, to)
}

func (s *PostgresMealsStorage) ListMealsBySlot(ctx context.Context, userID uuid.UUID, slot string, limit int) ([]storage.Meal, error) {
	const query = `
		SELECT id, user_id, eaten_at, slot
		FROM meals
		WHERE user_id = $1
		  AND slot = $2
		ORDER BY eaten_at DESC
		LIMIT $3
	`

	return s.listMeals(ctx, query, userID, slot, limit)
}

func (s *PostgresMealsStorage) UpdateFirstItem(ctx context.Context, userID, mealID uuid.UUID, foodName *string, grams *float64) (*storage.MealItem, error) {
	const query = `
		UPDATE meal_items
		SET food_name = COALESCE($3, food_name),
		    grams = COALESCE($4, grams)
		WHERE id = (
			SELECT mi.id
			FROM meal_items mi
			JOIN meals m ON m.id = mi.meal_id
			WHERE mi.meal_id = $1 AND m.user_id = $2
			ORDER BY mi.id ASC
			LIMIT 1
		)
		RETURNING id, meal_id, food_id, food_name, grams, pro, carb, fat
	`

	var item storage.MealItem
	err := s.pool.QueryRow(ctx, query, mealID, userID, foodName, grams).Scan(
		&item.ID,
		&item.MealID,
		&item.FoodID,
		&item.FoodName,
		&item.Grams,
		&item.Pro,
		&item.Carb,
		&item.Fat,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *PostgresMealsStorage) DeleteMeal(ctx context.Context, userID, mealID uuid.UUID) error {
	// meal_items rows go with the meal via ON DELETE CASCADE.
	const query = `DELETE FROM meals WHERE id = $1 AND user_id = $2`

	res, err := s.pool.Exec(ctx, query, mealID, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresMealsStorage) listMeals(ctx context.Context, query string, args ...any) ([]storage.Meal, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meals := make([]storage.Meal, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var meal storage.Meal
		if err := rows.Scan(&meal.ID, &meal.UserID, &meal.When, &meal.Slot); err != nil {
			return nil, err
		}
		meals = append(meals, meal)
		ids = append(ids, meal.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return meals, nil
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range meals {
		meals[i].Items = items[meals[i].ID]
	}
	return meals, nil
}

func (s *PostgresMealsStorage) loadItems(ctx context.Context, mealIDs []uuid.UUID) (map[uuid.UUID][]storage.MealItem, error) {
	const query = `
		SELECT id, meal_id, food_id, food_name, grams, pro, carb, fat
		FROM meal_items
		WHERE meal_id = ANY($1)
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, mealIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]storage.MealItem)
	for rows.Next() {
		var item storage.MealItem
		if err := rows.Scan(
			&item.ID,
			&item.MealID,
			&item.FoodID,
			&item.FoodName,
			&item.Grams,
			&item.Pro,
			&item.Carb,
			&item.Fat,
		); err != nil {
			return nil, err
		}
		result[item.MealID] = append(result[item.MealID], item)
	}
	return result, rows.Err()
}
