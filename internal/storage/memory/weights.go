package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// WeightsMemoryStorage is the in-memory storage for body-weight logs.
type WeightsMemoryStorage struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID][]storage.WeightLog
}

func NewWeightsMemoryStorage() *WeightsMemoryStorage {
	return &WeightsMemoryStorage{
		byUser: make(map[uuid.UUID][]storage.WeightLog),
	}
}

func (s *WeightsMemoryStorage) AddWeight(ctx context.Context, w *storage.WeightLog) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	s.byUser[w.UserID] = append(s.byUser[w.UserID], *w)
	return nil
}

func (s *WeightsMemoryStorage) ListWeights(ctx context.Context, userID uuid.UUID) ([]storage.WeightLog, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]storage.WeightLog, len(s.byUser[userID]))
	copy(logs, s.byUser[userID])
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].When.Before(logs[j].When)
	})
	return logs, nil
}

func (s *WeightsMemoryStorage) ListWeightsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]storage.WeightLog, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]storage.WeightLog, 0)
	for _, w := range s.byUser[userID] {
		if w.When.Before(from) || !w.When.Before(to) {
			continue
		}
		logs = append(logs, w)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].When.Before(logs[j].When)
	})
	return logs, nil
}

func (s *WeightsMemoryStorage) DeleteWeight(ctx context.Context, userID, weightID uuid.UUID) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	logs := s.byUser[userID]
	for i, w := range logs {
		if w.ID == weightID {
			s.byUser[userID] = append(logs[:i], logs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}
