package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// MealsMemoryStorage is the in-memory storage for meals and their items.
type MealsMemoryStorage struct {
	mu     sync.RWMutex
	meals  map[uuid.UUID]*storage.Meal
	byUser map[uuid.UUID][]uuid.UUID
}

func NewMealsMemoryStorage() *MealsMemoryStorage {
	return &MealsMemoryStorage{
		meals:  make(map[uuid.UUID]*storage.Meal),
		byUser: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *MealsMemoryStorage) CreateMeal(ctx context.Context, meal *storage.Meal) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}
	for i := range meal.Items {
		if meal.Items[i].ID == uuid.Nil {
			meal.Items[i].ID = uuid.New()
		}
		meal.Items[i].MealID = meal.ID
	}

	stored := *meal
	stored.Items = make([]storage.MealItem, len(meal.Items))
	copy(stored.Items, meal.Items)

	s.meals[meal.ID] = &stored
	s.byUser[meal.UserID] = append(s.byUser[meal.UserID], meal.ID)
	return nil
}

func (s *MealsMemoryStorage) GetMeal(ctx context.Context, userID, mealID uuid.UUID) (*storage.Meal, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	meal, ok := s.meals[mealID]
	if !ok || meal.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return copyMeal(meal), nil
}

func (s *MealsMemoryStorage) ListMealsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.Meal, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.Meal, 0)
	for _, id := range s.byUser[userID] {
		meal, ok := s.meals[id]
		if !ok {
			continue
		}
		if meal.When.Before(from) || !meal.When.Before(to) {
			continue
		}
		result = append(result, *copyMeal(meal))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].When.Before(result[j].When)
	})
	return result, nil
}

func (s *MealsMemoryStorage) ListMealsBySlot(ctx context.Context, userID uuid.UUID, slot string, limit int) ([]storage.Meal, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.Meal, 0)
	for _, id := range s.byUser[userID] {
		meal, ok := s.meals[id]
		if !ok || meal.Slot != slot {
			continue
		}
		result = append(result, *copyMeal(meal))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].When.After(result[j].When)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MealsMemoryStorage) UpdateFirstItem(ctx context.Context, userID, mealID uuid.UUID, foodName *string, grams *float64) (*storage.MealItem, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	meal, ok := s.meals[mealID]
	if !ok || meal.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if len(meal.Items) == 0 {
		return nil, storage.ErrNotFound
	}

	item := &meal.Items[0]
	if foodName != nil {
		item.FoodName = *foodName
	}
	if grams != nil {
		item.Grams = *grams
	}
	updated := *item
	return &updated, nil
}

func (s *MealsMemoryStorage) DeleteMeal(ctx context.Context, userID, mealID uuid.UUID) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	meal, ok := s.meals[mealID]
	if !ok || meal.UserID != userID {
		return storage.ErrNotFound
	}

	delete(s.meals, mealID)
	ids := s.byUser[userID]
	filtered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != mealID {
			filtered = append(filtered, id)
		}
	}
	s.byUser[userID] = filtered
	return nil
}

func copyMeal(meal *storage.Meal) *storage.Meal {
	out := *meal
	out.Items = make([]storage.MealItem, len(meal.Items))
	copy(out.Items, meal.Items)
	return &out
}
