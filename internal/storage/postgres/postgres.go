package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/macroscoach/backend/internal/storage"
)

// PostgresStorage is the Postgres implementation of all storage interfaces.
type PostgresStorage struct {
	pool     *pgxpool.Pool
	plans    *PostgresPlansStorage
	dayModes *PostgresDayModesStorage
	meals    *PostgresMealsStorage
	weights  *PostgresWeightsStorage
	workouts *PostgresWorkoutsStorage
	foods    *PostgresFoodsStorage
	reports  *PostgresReportsStorage
}

// New connects to the database and verifies the connection with a ping.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStorage{
		pool:     pool,
		plans:    NewPostgresPlansStorage(pool),
		dayModes: NewPostgresDayModesStorage(pool),
		meals:    NewPostgresMealsStorage(pool),
		weights:  NewPostgresWeightsStorage(pool),
		workouts: NewPostgresWorkoutsStorage(pool),
		foods:    NewPostgresFoodsStorage(pool),
		reports:  NewPostgresReportsStorage(pool),
	}, nil
}

// UsersStorage methods

func (p *PostgresStorage) CreateUser(ctx context.Context, user *storage.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO users (id, email, password_hash, timezone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Timezone,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	const query = `
		SELECT id, email, password_hash, timezone, created_at
		FROM users
		WHERE email = $1
	`

	var user storage.User
	err := p.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Timezone,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	const query = `
		SELECT id, email, password_hash, timezone, created_at
		FROM users
		WHERE id = $1
	`

	var user storage.User
	err := p.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Timezone,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// GetPlansStorage returns the plans storage.
func (p *PostgresStorage) GetPlansStorage() *PostgresPlansStorage {
	return p.plans
}

// GetDayModesStorage returns the day modes storage.
func (p *PostgresStorage) GetDayModesStorage() *PostgresDayModesStorage {
	return p.dayModes
}

// GetMealsStorage returns the meals storage.
func (p *PostgresStorage) GetMealsStorage() *PostgresMealsStorage {
	return p.meals
}

// GetWeightsStorage returns the weights storage.
func (p *PostgresStorage) GetWeightsStorage() *PostgresWeightsStorage {
	return p.weights
}

// GetWorkoutsStorage returns the workouts storage.
func (p *PostgresStorage) GetWorkoutsStorage() *PostgresWorkoutsStorage {
	return p.workouts
}

// GetFoodsStorage returns the foods storage.
func (p *PostgresStorage) GetFoodsStorage() *PostgresFoodsStorage {
	return p.foods
}

// GetReportsStorage returns the reports storage.
func (p *PostgresStorage) GetReportsStorage() *PostgresReportsStorage {
	return p.reports
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
