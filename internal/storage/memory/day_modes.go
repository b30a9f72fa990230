package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// DayModesMemoryStorage is the in-memory storage for the weekly ON/OFF
// schedule.
type DayModesMemoryStorage struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID][]storage.DayMode
}

func NewDayModesMemoryStorage() *DayModesMemoryStorage {
	return &DayModesMemoryStorage{
		byUser: make(map[uuid.UUID][]storage.DayMode),
	}
}

func (s *DayModesMemoryStorage) ListDayModes(ctx context.Context, userID uuid.UUID) ([]storage.DayMode, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]storage.DayMode, len(s.byUser[userID]))
	copy(rows, s.byUser[userID])
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Weekday < rows[j].Weekday
	})
	return rows, nil
}

func (s *DayModesMemoryStorage) ReplaceDayModes(ctx context.Context, userID uuid.UUID, rows []storage.DayModeUpsert) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]storage.DayMode, 0, len(rows))
	for _, row := range rows {
		saved = append(saved, storage.DayMode{
			ID:      uuid.New(),
			UserID:  userID,
			Weekday: row.Weekday,
			IsOn:    row.IsOn,
		})
	}
	s.byUser[userID] = saved
	return nil
}
