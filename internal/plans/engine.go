package plans

import (
	"errors"

	"github.com/macroscoach/backend/internal/storage"
)

// ErrNoSlotMatch is returned when no active distribution window covers the
// given minute of day. Deliberately a hard failure: silently bucketing a
// meal into a default slot would corrupt macro accounting.
var ErrNoSlotMatch = errors.New("no distribution window matches")

// Macros is a macro/calorie quadruple. Kcal is always derived from the
// other three via the 4/4/9 rule, never stored independently.
type Macros struct {
	Kcal float64 `json:"kcal"`
	Carb float64 `json:"carb"`
	Pro  float64 `json:"pro"`
	Fat  float64 `json:"fat"`
}

// KcalOf derives calories from grams of protein, carbs and fat.
func KcalOf(pro, carb, fat float64) float64 {
	return pro*4 + carb*4 + fat*9
}

// SlotAllocation is one slot's used-vs-target comparison.
type SlotAllocation struct {
	Slot   string `json:"slot"`
	Used   Macros `json:"used"`
	Target Macros `json:"target"`
}

// ActiveDistributions filters a bundle's distributions down to the given
// mode, preserving their sort order.
func ActiveDistributions(bundle *storage.PlanBundle, isOn bool) []storage.Distribution {
	result := make([]storage.Distribution, 0, len(bundle.Distributions))
	for _, d := range bundle.Distributions {
		if d.IsOn == isOn {
			result = append(result, d)
		}
	}
	return result
}

// ResolveSlot maps a minute of day (0..1439) to the name of the first
// distribution whose window contains it. Distributions without both window
// bounds are skipped, never matched. A window with start > end wraps past
// midnight. Overlapping windows are a configuration choice: first match in
// sort order wins.
func ResolveSlot(dists []storage.Distribution, minute int) (string, error) {
	for _, d := range dists {
		if d.StartMin == nil || d.EndMin == nil {
			continue
		}
		start, end := *d.StartMin, *d.EndMin
		if start <= end {
			if minute >= start && minute <= end {
				return d.Name, nil
			}
		} else {
			if minute >= start || minute <= end {
				return d.Name, nil
			}
		}
	}
	return "", ErrNoSlotMatch
}

// Allocate computes each slot's macro targets from the day's limits and the
// mode's percentage targets, and pairs them with the macros already used.
// A slot without a stored target gets a uniform 100/N share, N being the
// number of active distributions. The uniform share applies to carb, pro
// and fat alike; it is not macro-aware.
func Allocate(limits storage.PlanLimits, dists []storage.Distribution, targets []storage.DistributionTarget, isOn bool, used map[string]Macros) []SlotAllocation {
	byName := make(map[string]storage.DistributionTarget, len(targets))
	for _, t := range targets {
		if t.IsOn == isOn {
			byName[t.Name] = t
		}
	}

	uniform := 0.0
	if len(dists) > 0 {
		uniform = 100.0 / float64(len(dists))
	}

	result := make([]SlotAllocation, 0, len(dists))
	for _, d := range dists {
		pctCarb, pctPro, pctFat := uniform, uniform, uniform
		if t, ok := byName[d.Name]; ok {
			pctCarb, pctPro, pctFat = t.PctCarb, t.PctPro, t.PctFat
		}

		carb := float64(limits.Carb) * pctCarb / 100
		pro := float64(limits.Pro) * pctPro / 100
		fat := float64(limits.Fat) * pctFat / 100

		result = append(result, SlotAllocation{
			Slot: d.Name,
			Used: used[d.Name],
			Target: Macros{
				Kcal: KcalOf(pro, carb, fat),
				Carb: carb,
				Pro:  pro,
				Fat:  fat,
			},
		})
	}
	return result
}

// UsedBySlot aggregates logged meals into per-slot macro totals. Each item
// contributes its per-100g values scaled by grams eaten.
func UsedBySlot(meals []storage.Meal) map[string]Macros {
	result := make(map[string]Macros)
	for _, meal := range meals {
		m := result[meal.Slot]
		for _, item := range meal.Items {
			factor := item.Grams / 100
			m.Pro += item.Pro * factor
			m.Carb += item.Carb * factor
			m.Fat += item.Fat * factor
		}
		m.Kcal = KcalOf(m.Pro, m.Carb, m.Fat)
		result[meal.Slot] = m
	}
	return result
}
