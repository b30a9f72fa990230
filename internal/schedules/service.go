package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

type Service struct {
	dayModesStorage storage.DayModesStorage
}

func NewService(dayModesStorage storage.DayModesStorage) *Service {
	return &Service{dayModesStorage: dayModesStorage}
}

func (s *Service) Get(ctx context.Context) (*ScheduleResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	rows, err := s.dayModesStorage.ListDayModes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(rows), nil
}

func (s *Service) Replace(ctx context.Context, req ReplaceScheduleRequest) (*ScheduleResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	rows := make([]storage.DayModeUpsert, 0, len(req.OnDays)+len(req.OffDays))
	for _, d := range req.OnDays {
		rows = append(rows, storage.DayModeUpsert{Weekday: d, IsOn: true})
	}
	for _, d := range req.OffDays {
		rows = append(rows, storage.DayModeUpsert{Weekday: d, IsOn: false})
	}

	if err := s.dayModesStorage.ReplaceDayModes(ctx, userID, rows); err != nil {
		return nil, err
	}

	saved, err := s.dayModesStorage.ListDayModes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(saved), nil
}

// Classify returns whether the given weekday (0=Monday) is a training day.
// A weekday with no stored row is OFF, not an error.
func (s *Service) Classify(ctx context.Context, userID uuid.UUID, weekday int) (bool, error) {
	rows, err := s.dayModesStorage.ListDayModes(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if row.Weekday == weekday {
			return row.IsOn, nil
		}
	}
	return false, nil
}

func toResponse(rows []storage.DayMode) *ScheduleResponse {
	resp := &ScheduleResponse{
		OnDays:  make([]int, 0),
		OffDays: make([]int, 0),
	}
	for _, row := range rows {
		if row.IsOn {
			resp.OnDays = append(resp.OnDays, row.Weekday)
		} else {
			resp.OffDays = append(resp.OffDays, row.Weekday)
		}
	}
	return resp
}
