package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macroscoach/backend/internal/storage"
)

// PostgresWorkoutsStorage is the Postgres implementation for workouts.
type PostgresWorkoutsStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresWorkoutsStorage(pool *pgxpool.Pool) *PostgresWorkoutsStorage {
	return &PostgresWorkoutsStorage{pool: pool}
}

func (s *PostgresWorkoutsStorage) CreateWorkout(ctx context.Context, w *storage.Workout) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertWorkout = `
		INSERT INTO workouts (id, user_id, performed_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertWorkout, w.ID, w.UserID, w.When); err != nil {
		return err
	}

	const insertSet = `
		INSERT INTO workout_sets (id, workout_id, exercise, reps, weight_kg)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range w.Sets {
		set := &w.Sets[i]
		if set.ID == uuid.Nil {
			set.ID = uuid.New()
		}
		set.WorkoutID = w.ID
		if _, err := tx.Exec(ctx, insertSet, set.ID, set.WorkoutID, set.Exercise, set.Reps, set.WeightKg); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresWorkoutsStorage) ListWorkouts(ctx context.Context, userID uuid.UUID) ([]storage.Workout, error) {
	const query = `
		SELECT id, user_id, performed_at
		FROM workouts
		WHERE user_id = $1
		ORDER BY performed_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]storage.Workout, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var w storage.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.When); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
		ids = append(ids, w.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return workouts, nil
	}

	const setsQuery = `
		SELECT id, workout_id, exercise, reps, weight_kg
		FROM workout_sets
		WHERE workout_id = ANY($1)
		ORDER BY id ASC
	`

	srows, err := s.pool.Query(ctx, setsQuery, ids)
	if err != nil {
		return nil, err
	}
	defer srows.Close()

	byWorkout := make(map[uuid.UUID][]storage.WorkoutSet)
	for srows.Next() {
		var set storage.WorkoutSet
		if err := srows.Scan(&set.ID, &set.WorkoutID, &set.Exercise, &set.Reps, &set.WeightKg); err != nil {
			return nil, err
		}
		byWorkout[set.WorkoutID] = append(byWorkout[set.WorkoutID], set)
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}

	for i := range workouts {
		workouts[i].Sets = byWorkout[workouts[i].ID]
	}
	return workouts, nil
}

func (s *PostgresWorkoutsStorage) CountWorkoutsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM workouts
		WHERE user_id = $1
		  AND performed_at >= $2
		  AND performed_at < $3
	`

	var count int
	err := s.pool.QueryRow(ctx, query, userID, from, to).Scan(&count)
	return count, err
}
