package foods

import (
	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// FoodDTO is one catalog entry on the wire. Macro values are per 100g.
type FoodDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Barcode      *string   `json:"barcode,omitempty"`
	Kcal         float64   `json:"kcal"`
	Pro          float64   `json:"pro"`
	Carb         float64   `json:"carb"`
	Fat          float64   `json:"fat"`
	GramsPerUnit *float64  `json:"grams_per_unit,omitempty"`
}

// BarcodeLookupResponse is the result of GET /v1/foods/barcode/{code}.
// ID is only set when the food already lives in the catalog.
type BarcodeLookupResponse struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Barcode      string     `json:"barcode"`
	Name         string     `json:"name"`
	Kcal         float64    `json:"kcal"`
	Pro          float64    `json:"pro"`
	Carb         float64    `json:"carb"`
	Fat          float64    `json:"fat"`
	GramsPerUnit *float64   `json:"grams_per_unit,omitempty"`
	Source       string     `json:"source"` // "catalog" or "openfoodfacts"
}

// ConfirmBarcodeRequest saves a (possibly user-edited) barcode lookup into
// the catalog.
type ConfirmBarcodeRequest struct {
	Name         string   `json:"name"`
	Kcal         float64  `json:"kcal"`
	Pro          float64  `json:"pro"`
	Carb         float64  `json:"carb"`
	Fat          float64  `json:"fat"`
	GramsPerUnit *float64 `json:"grams_per_unit,omitempty"`
}

func (r *ConfirmBarcodeRequest) Validate() error {
	if r.Name == "" {
		return errNameRequired
	}
	if r.Kcal < 0 || r.Pro < 0 || r.Carb < 0 || r.Fat < 0 {
		return errNegativeMacros
	}
	return nil
}

// RecentBySlotItem is a previously logged portion for a slot, newest first,
// one entry per distinct food.
type RecentBySlotItem struct {
	FoodID   *uuid.UUID `json:"food_id,omitempty"`
	FoodName string     `json:"food_name"`
	Grams    float64    `json:"grams"`
	Pro      float64    `json:"pro"`
	Carb     float64    `json:"carb"`
	Fat      float64    `json:"fat"`
}

type FoodListResponse struct {
	Foods []FoodDTO `json:"foods"`
}

type RecentBySlotResponse struct {
	Items []RecentBySlotItem `json:"items"`
}

func toDTO(f storage.Food) FoodDTO {
	return FoodDTO{
		ID:           f.ID,
		Name:         f.Name,
		Barcode:      f.Barcode,
		Kcal:         f.Per100Kcal,
		Pro:          f.Per100Pro,
		Carb:         f.Per100Carb,
		Fat:          f.Per100Fat,
		GramsPerUnit: f.GramsPerUnit,
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
