package weights

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// AddWeightRequest logs one measurement. When defaults to now.
type AddWeightRequest struct {
	When *time.Time `json:"when,omitempty"`
	Kg   float64    `json:"kg"`
}

func (r *AddWeightRequest) Validate() error {
	if r.Kg <= 0 || r.Kg > 500 {
		return fmt.Errorf("kg must be positive and plausible")
	}
	return nil
}

// WeightDTO is one measurement on the wire.
type WeightDTO struct {
	ID   uuid.UUID `json:"id"`
	When time.Time `json:"when"`
	Kg   float64   `json:"kg"`
}

type WeightListResponse struct {
	Weights []WeightDTO `json:"weights"`
}

// WeeklyBucket aggregates one local calendar week, keyed by its Monday.
type WeeklyBucket struct {
	WeekStart string  `json:"week_start"` // YYYY-MM-DD, a Monday
	Avg       float64 `json:"avg"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	N         int     `json:"n"`
}

type WeeklyResponse struct {
	Weeks []WeeklyBucket `json:"weeks"`
}

// TrendResponse carries the least-squares weight slope in kg per week.
// KgPerWeek is null with fewer than two points or when all points share
// the same day.
type TrendResponse struct {
	KgPerWeek *float64 `json:"kg_per_week"`
	N         int      `json:"n"`
}

func toDTO(w storage.WeightLog) WeightDTO {
	return WeightDTO{ID: w.ID, When: w.When, Kg: w.Kg}
}

// ErrorResponse is the envelope for error payloads.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
