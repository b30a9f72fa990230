package meals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/plans"
	"github.com/macroscoach/backend/internal/storage"
)

// MealItemInput is one food portion. Pro/carb/fat are per-100g values; the
// eaten amount is grams.
type MealItemInput struct {
	FoodID   *uuid.UUID `json:"food_id,omitempty"`
	FoodName string     `json:"food_name"`
	Grams    float64    `json:"grams"`
	Pro      float64    `json:"pro"`
	Carb     float64    `json:"carb"`
	Fat      float64    `json:"fat"`
}

// CreateMealRequest logs a meal. When defaults to now; a missing slot is
// resolved from the user's active distribution windows.
type CreateMealRequest struct {
	When  *time.Time      `json:"when,omitempty"`
	Slot  string          `json:"slot,omitempty"`
	Items []MealItemInput `json:"items"`
}

func (r *CreateMealRequest) Validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for _, item := range r.Items {
		if item.FoodName == "" {
			return fmt.Errorf("item food_name is required")
		}
		if item.Grams <= 0 {
			return fmt.Errorf("item grams must be positive")
		}
		if item.Pro < 0 || item.Carb < 0 || item.Fat < 0 {
			return fmt.Errorf("item macros must be non-negative")
		}
	}
	return nil
}

// PatchMealRequest updates the first item of a meal. Nil fields stay.
type PatchMealRequest struct {
	FoodName *string  `json:"food_name,omitempty"`
	Grams    *float64 `json:"grams,omitempty"`
}

func (r *PatchMealRequest) Validate() error {
	if r.FoodName == nil && r.Grams == nil {
		return fmt.Errorf("nothing to update")
	}
	if r.FoodName != nil && *r.FoodName == "" {
		return fmt.Errorf("food_name must not be empty")
	}
	if r.Grams != nil && *r.Grams <= 0 {
		return fmt.Errorf("grams must be positive")
	}
	return nil
}

// MealItemDTO is one portion on the wire. Kcal is derived for the portion.
type MealItemDTO struct {
	ID       uuid.UUID  `json:"id"`
	FoodID   *uuid.UUID `json:"food_id,omitempty"`
	FoodName string     `json:"food_name"`
	Grams    float64    `json:"grams"`
	Pro      float64    `json:"pro"`
	Carb     float64    `json:"carb"`
	Fat      float64    `json:"fat"`
	Kcal     float64    `json:"kcal"`
}

// MealDTO is one logged meal with portion totals.
type MealDTO struct {
	ID     uuid.UUID     `json:"id"`
	When   time.Time     `json:"when"`
	Slot   string        `json:"slot"`
	Items  []MealItemDTO `json:"items"`
	Totals plans.Macros  `json:"totals"`
}

// TodayResponse is the full picture for the local calendar day.
type TodayResponse struct {
	Date   string                 `json:"date"`
	IsOn   bool                   `json:"is_on"`
	Limits plans.LimitsDTO        `json:"limits"`
	Totals plans.Macros           `json:"totals"`
	BySlot []plans.SlotAllocation `json:"by_slot"`
	Meals  []MealDTO              `json:"meals"`
}

func toMealDTO(meal storage.Meal) MealDTO {
	items := make([]MealItemDTO, 0, len(meal.Items))
	var totals plans.Macros
	for _, item := range meal.Items {
		factor := item.Grams / 100
		pro := item.Pro * factor
		carb := item.Carb * factor
		fat := item.Fat * factor
		totals.Pro += pro
		totals.Carb += carb
		totals.Fat += fat
		items = append(items, MealItemDTO{
			ID:       item.ID,
			FoodID:   item.FoodID,
			FoodName: item.FoodName,
			Grams:    item.Grams,
			Pro:      item.Pro,
			Carb:     item.Carb,
			Fat:      item.Fat,
			Kcal:     plans.KcalOf(pro, carb, fat),
		})
	}
	totals.Kcal = plans.KcalOf(totals.Pro, totals.Carb, totals.Fat)

	return MealDTO{
		ID:     meal.ID,
		When:   meal.When,
		Slot:   meal.Slot,
		Items:  items,
		Totals: totals,
	}
}

// ErrorResponse is the envelope for error payloads.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
