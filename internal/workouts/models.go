package workouts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// SetInput is one exercise set.
type SetInput struct {
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`
}

// CreateWorkoutRequest logs a session. When defaults to now.
type CreateWorkoutRequest struct {
	When *time.Time `json:"when,omitempty"`
	Sets []SetInput `json:"sets"`
}

func (r *CreateWorkoutRequest) Validate() error {
	if len(r.Sets) == 0 {
		return fmt.Errorf("at least one set is required")
	}
	for _, set := range r.Sets {
		if set.Exercise == "" {
			return fmt.Errorf("set exercise is required")
		}
		if set.Reps <= 0 {
			return fmt.Errorf("set reps must be positive")
		}
		if set.WeightKg < 0 {
			return fmt.Errorf("set weight_kg must be non-negative")
		}
	}
	return nil
}

type SetDTO struct {
	ID       uuid.UUID `json:"id"`
	Exercise string    `json:"exercise"`
	Reps     int       `json:"reps"`
	WeightKg float64   `json:"weight_kg"`
}

type WorkoutDTO struct {
	ID   uuid.UUID `json:"id"`
	When time.Time `json:"when"`
	Sets []SetDTO  `json:"sets"`
}

type WorkoutListResponse struct {
	Workouts []WorkoutDTO `json:"workouts"`
}

func toDTO(w storage.Workout) WorkoutDTO {
	sets := make([]SetDTO, 0, len(w.Sets))
	for _, set := range w.Sets {
		sets = append(sets, SetDTO{
			ID:       set.ID,
			Exercise: set.Exercise,
			Reps:     set.Reps,
			WeightKg: set.WeightKg,
		})
	}
	return WorkoutDTO{ID: w.ID, When: w.When, Sets: sets}
}

// ErrorResponse is the envelope for error payloads.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
