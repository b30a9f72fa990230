package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// MemoryStorage is the in-memory backend used when no database is
// configured and by the test suites.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[uuid.UUID]storage.User
	email map[string]uuid.UUID

	plans    *PlansMemoryStorage
	dayModes *DayModesMemoryStorage
	meals    *MealsMemoryStorage
	weights  *WeightsMemoryStorage
	workouts *WorkoutsMemoryStorage
	foods    *FoodsMemoryStorage
	reports  *ReportsMemoryStorage
}

func New() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[uuid.UUID]storage.User),
		email:    make(map[string]uuid.UUID),
		plans:    NewPlansMemoryStorage(),
		dayModes: NewDayModesMemoryStorage(),
		meals:    NewMealsMemoryStorage(),
		weights:  NewWeightsMemoryStorage(),
		workouts: NewWorkoutsMemoryStorage(),
		foods:    NewFoodsMemoryStorage(),
		reports:  NewReportsMemoryStorage(),
	}
}

// UsersStorage methods

func (m *MemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.email[user.Email]; taken {
		return storage.ErrDuplicate
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	m.users[user.ID] = *user
	m.email[user.Email] = user.ID
	return nil
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.email[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	user := m.users[id]
	return &user, nil
}

func (m *MemoryStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*storage.User, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStorage) Close() error {
	// no-op for memory
	return nil
}

// GetPlansStorage returns the plans storage.
func (m *MemoryStorage) GetPlansStorage() *PlansMemoryStorage {
	return m.plans
}

// GetDayModesStorage returns the day modes storage.
func (m *MemoryStorage) GetDayModesStorage() *DayModesMemoryStorage {
	return m.dayModes
}

// GetMealsStorage returns the meals storage.
func (m *MemoryStorage) GetMealsStorage() *MealsMemoryStorage {
	return m.meals
}

// GetWeightsStorage returns the weights storage.
func (m *MemoryStorage) GetWeightsStorage() *WeightsMemoryStorage {
	return m.weights
}

// GetWorkoutsStorage returns the workouts storage.
func (m *MemoryStorage) GetWorkoutsStorage() *WorkoutsMemoryStorage {
	return m.workouts
}

// GetFoodsStorage returns the foods storage.
func (m *MemoryStorage) GetFoodsStorage() *FoodsMemoryStorage {
	return m.foods
}

// GetReportsStorage returns the reports storage.
func (m *MemoryStorage) GetReportsStorage() *ReportsMemoryStorage {
	return m.reports
}
