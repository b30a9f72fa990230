package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// WorkoutsMemoryStorage is the in-memory storage for workouts and sets.
type WorkoutsMemoryStorage struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID][]storage.Workout
}

func NewWorkoutsMemoryStorage() *WorkoutsMemoryStorage {
	return &WorkoutsMemoryStorage{
		byUser: make(map[uuid.UUID][]storage.Workout),
	}
}

func (s *WorkoutsMemoryStorage) CreateWorkout(ctx context.Context, w *storage.Workout) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	for i := range w.Sets {
		if w.Sets[i].ID == uuid.Nil {
			w.Sets[i].ID = uuid.New()
		}
		w.Sets[i].WorkoutID = w.ID
	}

	stored := *w
	stored.Sets = make([]storage.WorkoutSet, len(w.Sets))
	copy(stored.Sets, w.Sets)

	s.byUser[w.UserID] = append(s.byUser[w.UserID], stored)
	return nil
}

func (s *WorkoutsMemoryStorage) ListWorkouts(ctx context.Context, userID uuid.UUID) ([]storage.Workout, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.Workout, 0, len(s.byUser[userID]))
	for _, w := range s.byUser[userID] {
		out := w
		out.Sets = make([]storage.WorkoutSet, len(w.Sets))
		copy(out.Sets, w.Sets)
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].When.After(result[j].When)
	})
	return result, nil
}

func (s *WorkoutsMemoryStorage) CountWorkoutsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, w := range s.byUser[userID] {
		if w.When.Before(from) || !w.When.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}
