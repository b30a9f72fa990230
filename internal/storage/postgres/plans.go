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

// PostgresPlansStorage is the Postgres implementation for plans,
// distributions and distribution targets.
type PostgresPlansStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresPlansStorage(pool *pgxpool.Pool) *PostgresPlansStorage {
	return &PostgresPlansStorage{pool: pool}
}

func (s *PostgresPlansStorage) GetPlan(ctx context.Context, userID uuid.UUID) (*storage.PlanBundle, error) {
	plan, err := s.getPlanRow(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.loadBundle(ctx, plan)
}

func (s *PostgresPlansStorage) CreateDefaultPlan(ctx context.Context, userID uuid.UUID, defaults storage.PlanDefaults) (*storage.PlanBundle, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertPlan = `
		INSERT INTO plans (
			id, user_id,
			on_kcal, on_carb, on_pro, on_fat,
			off_kcal, off_carb, off_pro, off_fat,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (user_id) DO NOTHING
	`

	planID := uuid.New()
	now := time.Now().UTC()
	res, err := tx.Exec(ctx, insertPlan,
		planID,
		userID,
		defaults.On.Kcal, defaults.On.Carb, defaults.On.Pro, defaults.On.Fat,
		defaults.Off.Kcal, defaults.Off.Carb, defaults.Off.Pro, defaults.Off.Fat,
		now,
	)
	if err != nil {
		return nil, err
	}

	// Lost the bootstrap race: another request inserted first. Return its plan.
	if res.RowsAffected() == 0 {
		return s.GetPlan(ctx, userID)
	}

	const insertDist = `
		INSERT INTO distributions (id, plan_id, is_on, name, sort_order, start_min, end_min)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL)
	`
	for i, name := range defaults.OnSlots {
		if _, err := tx.Exec(ctx, insertDist, uuid.New(), planID, true, name, i); err != nil {
			return nil, err
		}
	}
	for i, name := range defaults.OffSlots {
		if _, err := tx.Exec(ctx, insertDist, uuid.New(), planID, false, name, i); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.GetPlan(ctx, userID)
}

func (s *PostgresPlansStorage) ReplacePlan(ctx context.Context, userID uuid.UUID, on, off storage.PlanLimits, dists []storage.DistributionUpsert, targets []storage.TargetUpsert) (*storage.PlanBundle, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const updatePlan = `
		UPDATE plans
		SET on_kcal = $2, on_carb = $3, on_pro = $4, on_fat = $5,
		    off_kcal = $6, off_carb = $7, off_pro = $8, off_fat = $9,
		    updated_at = $10
		WHERE user_id = $1
		RETURNING id
	`

	var planID uuid.UUID
	err = tx.QueryRow(ctx, updatePlan,
		userID,
		on.Kcal, on.Carb, on.Pro, on.Fat,
		off.Kcal, off.Carb, off.Pro, off.Fat,
		time.Now().UTC(),
	).Scan(&planID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM distributions WHERE plan_id = $1`, planID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM distribution_targets WHERE plan_id = $1`, planID); err != nil {
		return nil, err
	}

	const insertDist = `
		INSERT INTO distributions (id, plan_id, is_on, name, sort_order, start_min, end_min)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, d := range dists {
		if _, err := tx.Exec(ctx, insertDist, uuid.New(), planID, d.IsOn, d.Name, d.SortOrder, d.StartMin, d.EndMin); err != nil {
			return nil, err
		}
	}

	const insertTarget = `
		INSERT INTO distribution_targets (id, plan_id, is_on, name, pct_carb, pct_pro, pct_fat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, t := range targets {
		if _, err := tx.Exec(ctx, insertTarget, uuid.New(), planID, t.IsOn, t.Name, t.PctCarb, t.PctPro, t.PctFat); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return s.GetPlan(ctx, userID)
}

func (s *PostgresPlansStorage) getPlanRow(ctx context.Context, userID uuid.UUID) (*storage.Plan, error) {
	const query = `
		SELECT id, user_id,
		       on_kcal, on_carb, on_pro, on_fat,
		       off_kcal, off_carb, off_pro, off_fat,
		       created_at, updated_at
		FROM plans
		WHERE user_id = $1
	`

	var plan storage.Plan
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.On.Kcal, &plan.On.Carb, &plan.On.Pro, &plan.On.Fat,
		&plan.Off.Kcal, &plan.Off.Carb, &plan.Off.Pro, &plan.Off.Fat,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *PostgresPlansStorage) loadBundle(ctx context.Context, plan *storage.Plan) (*storage.PlanBundle, error) {
	const distQuery = `
		SELECT id, plan_id, is_on, name, sort_order, start_min, end_min
		FROM distributions
		WHERE plan_id = $1
		ORDER BY is_on DESC, sort_order ASC
	`

	rows, err := s.pool.Query(ctx, distQuery, plan.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dists := make([]storage.Distribution, 0)
	for rows.Next() {
		var d storage.Distribution
		if err := rows.Scan(&d.ID, &d.PlanID, &d.IsOn, &d.Name, &d.SortOrder, &d.StartMin, &d.EndMin); err != nil {
			return nil, err
		}
		dists = append(dists, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const targetQuery = `
		SELECT id, plan_id, is_on, name, pct_carb, pct_pro, pct_fat
		FROM distribution_targets
		WHERE plan_id = $1
		ORDER BY is_on DESC, name ASC
	`

	trows, err := s.pool.Query(ctx, targetQuery, plan.ID)
	if err != nil {
		return nil, err
	}
	defer trows.Close()

	targets := make([]storage.DistributionTarget, 0)
	for trows.Next() {
		var t storage.DistributionTarget
		if err := trows.Scan(&t.ID, &t.PlanID, &t.IsOn, &t.Name, &t.PctCarb, &t.PctPro, &t.PctFat); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if err := trows.Err(); err != nil {
		return nil, err
	}

	return &storage.PlanBundle{
		Plan:          *plan,
		Distributions: dists,
		Targets:       targets,
	}, nil
}
