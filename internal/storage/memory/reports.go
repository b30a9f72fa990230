package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// ReportsMemoryStorage is the in-memory storage for report metadata.
// Payloads are kept inline since there is no blob backend in memory mode.
type ReportsMemoryStorage struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*storage.ReportMeta
	byUser map[uuid.UUID][]uuid.UUID
}

func NewReportsMemoryStorage() *ReportsMemoryStorage {
	return &ReportsMemoryStorage{
		byID:   make(map[uuid.UUID]*storage.ReportMeta),
		byUser: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *ReportsMemoryStorage) CreateReport(ctx context.Context, report *storage.ReportMeta) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	stored := *report
	stored.Data = make([]byte, len(report.Data))
	copy(stored.Data, report.Data)

	s.byID[report.ID] = &stored
	s.byUser[report.UserID] = append(s.byUser[report.UserID], report.ID)
	return nil
}

func (s *ReportsMemoryStorage) GetReport(ctx context.Context, userID, reportID uuid.UUID) (*storage.ReportMeta, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.byID[reportID]
	if !ok || report.UserID != userID {
		return nil, storage.ErrNotFound
	}
	out := *report
	out.Data = make([]byte, len(report.Data))
	copy(out.Data, report.Data)
	return &out, nil
}

func (s *ReportsMemoryStorage) ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]storage.ReportMeta, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]storage.ReportMeta, 0)
	for _, id := range s.byUser[userID] {
		report, ok := s.byID[id]
		if !ok {
			continue
		}
		out := *report
		out.Data = nil // metadata only in listings
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *ReportsMemoryStorage) DeleteReport(ctx context.Context, userID, reportID uuid.UUID) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.byID[reportID]
	if !ok || report.UserID != userID {
		return storage.ErrNotFound
	}

	delete(s.byID, reportID)
	ids := s.byUser[userID]
	filtered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != reportID {
			filtered = append(filtered, id)
		}
	}
	s.byUser[userID] = filtered
	return nil
}
