package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

type Service struct {
	workoutsStorage storage.WorkoutsStorage

	now func() time.Time
}

func NewService(workoutsStorage storage.WorkoutsStorage) *Service {
	return &Service{
		workoutsStorage: workoutsStorage,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, req CreateWorkoutRequest) (*WorkoutDTO, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	when := s.now()
	if req.When != nil {
		when = req.When.UTC()
	}

	sets := make([]storage.WorkoutSet, 0, len(req.Sets))
	for _, set := range req.Sets {
		sets = append(sets, storage.WorkoutSet{
			Exercise: set.Exercise,
			Reps:     set.Reps,
			WeightKg: set.WeightKg,
		})
	}

	workout := &storage.Workout{UserID: userID, When: when, Sets: sets}
	if err := s.workoutsStorage.CreateWorkout(ctx, workout); err != nil {
		return nil, err
	}

	dto := toDTO(*workout)
	return &dto, nil
}

func (s *Service) List(ctx context.Context) (*WorkoutListResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	rows, err := s.workoutsStorage.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]WorkoutDTO, 0, len(rows))
	for _, w := range rows {
		result = append(result, toDTO(w))
	}
	return &WorkoutListResponse{Workouts: result}, nil
}
