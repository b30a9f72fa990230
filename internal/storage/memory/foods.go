package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// FoodsMemoryStorage is the in-memory storage for the food catalog and
// per-user recents.
type FoodsMemoryStorage struct {
	mu        sync.RWMutex
	foods     map[uuid.UUID]storage.Food
	byBarcode map[string]uuid.UUID
	recents   map[uuid.UUID]map[uuid.UUID]time.Time // user_id -> food_id -> last_used
}

func NewFoodsMemoryStorage() *FoodsMemoryStorage {
	return &FoodsMemoryStorage{
		foods:     make(map[uuid.UUID]storage.Food),
		byBarcode: make(map[string]uuid.UUID),
		recents:   make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (s *FoodsMemoryStorage) SearchFoods(ctx context.Context, q string, limit int) ([]storage.Food, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q)
	result := make([]storage.Food, 0)
	for _, f := range s.foods {
		if strings.Contains(strings.ToLower(f.Name), needle) {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *FoodsMemoryStorage) GetFoodByID(ctx context.Context, id uuid.UUID) (*storage.Food, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	food, ok := s.foods[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &food, nil
}

func (s *FoodsMemoryStorage) GetFoodByBarcode(ctx context.Context, code string) (*storage.Food, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byBarcode[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	food := s.foods[id]
	return &food, nil
}

func (s *FoodsMemoryStorage) UpsertFoodByBarcode(ctx context.Context, code string, food *storage.Food) (*storage.Food, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byBarcode[code]; ok {
		existing := s.foods[id]
		existing.Name = food.Name
		existing.Per100Kcal = food.Per100Kcal
		existing.Per100Pro = food.Per100Pro
		existing.Per100Carb = food.Per100Carb
		existing.Per100Fat = food.Per100Fat
		existing.GramsPerUnit = food.GramsPerUnit
		s.foods[id] = existing
		return &existing, nil
	}

	stored := *food
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	barcode := code
	stored.Barcode = &barcode
	s.foods[stored.ID] = stored
	s.byBarcode[code] = stored.ID
	return &stored, nil
}

// AddFood inserts a catalog entry directly. Used by the seed path and tests.
func (s *FoodsMemoryStorage) AddFood(food storage.Food) storage.Food {
	s.mu.Lock()
	defer s.mu.Unlock()

	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}
	s.foods[food.ID] = food
	if food.Barcode != nil {
		s.byBarcode[*food.Barcode] = food.ID
	}
	return food
}

func (s *FoodsMemoryStorage) TouchRecent(ctx context.Context, userID, foodID uuid.UUID) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.foods[foodID]; !ok {
		return storage.ErrNotFound
	}
	if s.recents[userID] == nil {
		s.recents[userID] = make(map[uuid.UUID]time.Time)
	}
	s.recents[userID][foodID] = time.Now().UTC()
	return nil
}

func (s *FoodsMemoryStorage) ListRecentFoods(ctx context.Context, userID uuid.UUID, limit int) ([]storage.Food, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		food     storage.Food
		lastUsed time.Time
	}
	entries := make([]entry, 0, len(s.recents[userID]))
	for foodID, lastUsed := range s.recents[userID] {
		food, ok := s.foods[foodID]
		if !ok {
			continue
		}
		entries = append(entries, entry{food: food, lastUsed: lastUsed})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastUsed.After(entries[j].lastUsed)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	result := make([]storage.Food, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.food)
	}
	return result, nil
}
