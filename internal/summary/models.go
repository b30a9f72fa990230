package summary

import "github.com/macroscoach/backend/internal/plans"

// DaySummary is one local calendar day: mode, intake totals and the plan
// limits that applied.
type DaySummary struct {
	Date      string          `json:"date"`
	IsOn      bool            `json:"is_on"`
	Totals    plans.Macros    `json:"totals"`
	Limits    plans.LimitsDTO `json:"limits"`
	MealCount int             `json:"meal_count"`
}

type WeekResponse struct {
	Start string       `json:"start"`
	Days  []DaySummary `json:"days"`
}

// DayCheck is one day of the weekly check: whether protein reached its
// target and whether kcal landed within 10% of its target.
type DayCheck struct {
	Date        string  `json:"date"`
	IsOn        bool    `json:"is_on"`
	Kcal        float64 `json:"kcal"`
	ProteinG    float64 `json:"protein_g"`
	ProteinHit  bool    `json:"protein_hit"`
	KcalInRange bool    `json:"kcal_in_range"`
}

type WeeklyCheckResponse struct {
	Start           string     `json:"start"`
	Days            []DayCheck `json:"days"`
	ProteinDaysHit  int        `json:"protein_days_hit"`
	KcalDaysInRange int        `json:"kcal_days_in_range"`
	Workouts        int        `json:"workouts"`
	MinWorkouts     int        `json:"min_workouts"`
	WorkoutsOK      bool       `json:"workouts_ok"`
}

// ErrorResponse is the envelope for error payloads.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
