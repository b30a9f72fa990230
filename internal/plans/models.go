package plans

import (
	"fmt"
	"math"
)

// LimitsDTO is a daily macro/calorie budget on the wire.
type LimitsDTO struct {
	Kcal int `json:"kcal"`
	Carb int `json:"carb"`
	Pro  int `json:"pro"`
	Fat  int `json:"fat"`
}

// PctDTO is a slot's percentage share of each daily macro.
type PctDTO struct {
	Carb float64 `json:"carb"`
	Pro  float64 `json:"pro"`
	Fat  float64 `json:"fat"`
}

// DistributionDTO is one named slot. StartMin/EndMin are minutes since
// local midnight; both nil means the slot has no time window. Pct nil means
// the slot falls back to the uniform share at allocation time.
type DistributionDTO struct {
	Name      string  `json:"name"`
	SortOrder int     `json:"sort_order"`
	StartMin  *int    `json:"start_min,omitempty"`
	EndMin    *int    `json:"end_min,omitempty"`
	Pct       *PctDTO `json:"pct,omitempty"`
}

// ModePlanDTO is one mode's limits with its slots.
type ModePlanDTO struct {
	Limits        LimitsDTO         `json:"limits"`
	Distributions []DistributionDTO `json:"distributions"`
}

// PlanResponse is the full plan as returned by GET /v1/plan.
type PlanResponse struct {
	On  ModePlanDTO `json:"on"`
	Off ModePlanDTO `json:"off"`
}

// ReplacePlanRequest is the full plan as submitted by PUT /v1/plan. The
// whole set of distributions and targets is swapped, never patched.
type ReplacePlanRequest struct {
	On  ModePlanDTO `json:"on"`
	Off ModePlanDTO `json:"off"`
}

// pctSumTolerance bounds how far each macro's percentage sum may deviate
// from 100 within one mode group.
const pctSumTolerance = 0.5

func (r *ReplacePlanRequest) Validate() error {
	if err := validateLimits("on", r.On.Limits); err != nil {
		return err
	}
	if err := validateLimits("off", r.Off.Limits); err != nil {
		return err
	}
	if err := validateDistributions("on", r.On.Distributions); err != nil {
		return err
	}
	if err := validateDistributions("off", r.Off.Distributions); err != nil {
		return err
	}
	return nil
}

func validateLimits(mode string, l LimitsDTO) error {
	if l.Kcal < 0 || l.Carb < 0 || l.Pro < 0 || l.Fat < 0 {
		return fmt.Errorf("%s limits must be non-negative", mode)
	}
	return nil
}

func validateDistributions(mode string, dists []DistributionDTO) error {
	sumCarb, sumPro, sumFat := 0.0, 0.0, 0.0
	hasTargets := false

	for _, d := range dists {
		if d.Name == "" {
			return fmt.Errorf("%s distribution name is required", mode)
		}
		if (d.StartMin == nil) != (d.EndMin == nil) {
			return fmt.Errorf("%s slot %q: both window bounds or neither", mode, d.Name)
		}
		if d.StartMin != nil {
			if *d.StartMin < 0 || *d.StartMin > 1439 || *d.EndMin < 0 || *d.EndMin > 1439 {
				return fmt.Errorf("%s slot %q: window bounds must be in 0..1439", mode, d.Name)
			}
		}
		if d.Pct != nil {
			if d.Pct.Carb < 0 || d.Pct.Pro < 0 || d.Pct.Fat < 0 {
				return fmt.Errorf("%s slot %q: percentages must be non-negative", mode, d.Name)
			}
			hasTargets = true
			sumCarb += d.Pct.Carb
			sumPro += d.Pct.Pro
			sumFat += d.Pct.Fat
		}
	}

	// The sum invariant applies per macro, only when the group has targets.
	if hasTargets {
		if math.Abs(sumCarb-100) > pctSumTolerance {
			return fmt.Errorf("%s pct_carb sums to %.2f, expected 100", mode, sumCarb)
		}
		if math.Abs(sumPro-100) > pctSumTolerance {
			return fmt.Errorf("%s pct_pro sums to %.2f, expected 100", mode, sumPro)
		}
		if math.Abs(sumFat-100) > pctSumTolerance {
			return fmt.Errorf("%s pct_fat sums to %.2f, expected 100", mode, sumFat)
		}
	}

	return nil
}

// ErrorResponse is the envelope for error payloads.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
