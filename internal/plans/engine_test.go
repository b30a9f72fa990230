package plans

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

func intPtr(v int) *int { return &v }

func TestResolveSlotWrapWindow(t *testing.T) {
	dists := []storage.Distribution{
		{Name: "cena", StartMin: intPtr(1320), EndMin: intPtr(60)},
	}

	for _, minute := range []int{1320, 1439, 0, 30, 60} {
		slot, err := ResolveSlot(dists, minute)
		if err != nil {
			t.Fatalf("minute %d: unexpected error: %v", minute, err)
		}
		if slot != "cena" {
			t.Errorf("minute %d: expected cena, got %s", minute, slot)
		}
	}

	if _, err := ResolveSlot(dists, 700); !errors.Is(err, ErrNoSlotMatch) {
		t.Errorf("minute 700: expected ErrNoSlotMatch, got %v", err)
	}
}

func TestResolveSlotFirstMatchWins(t *testing.T) {
	dists := []storage.Distribution{
		{Name: "pranzo", StartMin: intPtr(700), EndMin: intPtr(900)},
		{Name: "merenda", StartMin: intPtr(800), EndMin: intPtr(1000)},
	}

	slot, err := ResolveSlot(dists, 850)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != "pranzo" {
		t.Errorf("expected pranzo to win on overlap, got %s", slot)
	}
}

func TestResolveSlotSkipsWindowlessDistributions(t *testing.T) {
	dists := []storage.Distribution{
		{Name: "colazione"},
		{Name: "snack", StartMin: intPtr(400)},
	}

	if _, err := ResolveSlot(dists, 500); !errors.Is(err, ErrNoSlotMatch) {
		t.Errorf("expected ErrNoSlotMatch, got %v", err)
	}
}

func TestAllocateUniformFallback(t *testing.T) {
	limits := storage.PlanLimits{Kcal: 2600, Carb: 360, Pro: 194, Fat: 45}
	dists := []storage.Distribution{
		{Name: "pre-workout", IsOn: true},
		{Name: "pranzo", IsOn: true},
		{Name: "cena", IsOn: true},
	}

	result := Allocate(limits, dists, nil, true, nil)
	if len(result) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(result))
	}

	for _, slot := range result {
		if math.Abs(slot.Target.Carb-120) > 0.01 {
			t.Errorf("%s: expected carb 120, got %f", slot.Slot, slot.Target.Carb)
		}
		if math.Abs(slot.Target.Pro-64.6667) > 0.01 {
			t.Errorf("%s: expected pro 64.67, got %f", slot.Slot, slot.Target.Pro)
		}
		if math.Abs(slot.Target.Fat-15) > 0.01 {
			t.Errorf("%s: expected fat 15, got %f", slot.Slot, slot.Target.Fat)
		}

		// kcal comes from the allocated grams, never from kcal/N
		wantKcal := KcalOf(slot.Target.Pro, slot.Target.Carb, slot.Target.Fat)
		if math.Abs(slot.Target.Kcal-wantKcal) > 0.01 {
			t.Errorf("%s: expected kcal %f, got %f", slot.Slot, wantKcal, slot.Target.Kcal)
		}
		if math.Abs(slot.Target.Kcal-2600.0/3) < 0.01 {
			t.Errorf("%s: kcal must not be limits.kcal/3", slot.Slot)
		}
	}
}

func TestAllocateExplicitTargetsOverrideUniform(t *testing.T) {
	limits := storage.PlanLimits{Kcal: 2000, Carb: 200, Pro: 100, Fat: 50}
	dists := []storage.Distribution{
		{Name: "pranzo", IsOn: true},
		{Name: "cena", IsOn: true},
	}
	targets := []storage.DistributionTarget{
		{IsOn: true, Name: "pranzo", PctCarb: 70, PctPro: 60, PctFat: 40},
	}

	result := Allocate(limits, dists, targets, true, nil)

	if math.Abs(result[0].Target.Carb-140) > 0.01 {
		t.Errorf("pranzo: expected carb 140, got %f", result[0].Target.Carb)
	}
	if math.Abs(result[0].Target.Pro-60) > 0.01 {
		t.Errorf("pranzo: expected pro 60, got %f", result[0].Target.Pro)
	}

	// cena has no target and falls back to the uniform 50% share
	if math.Abs(result[1].Target.Carb-100) > 0.01 {
		t.Errorf("cena: expected carb 100, got %f", result[1].Target.Carb)
	}
	if math.Abs(result[1].Target.Fat-25) > 0.01 {
		t.Errorf("cena: expected fat 25, got %f", result[1].Target.Fat)
	}
}

func TestAllocateIgnoresTargetsOfOtherMode(t *testing.T) {
	limits := storage.PlanLimits{Carb: 100, Pro: 100, Fat: 100}
	dists := []storage.Distribution{{Name: "pranzo", IsOn: true}}
	targets := []storage.DistributionTarget{
		{IsOn: false, Name: "pranzo", PctCarb: 10, PctPro: 10, PctFat: 10},
	}

	result := Allocate(limits, dists, targets, true, nil)
	if math.Abs(result[0].Target.Carb-100) > 0.01 {
		t.Errorf("expected the OFF target ignored, got carb %f", result[0].Target.Carb)
	}
}

func TestUsedBySlot(t *testing.T) {
	meals := []storage.Meal{
		{
			Slot: "pranzo",
			Items: []storage.MealItem{
				{FoodName: "riso", Grams: 200, Pro: 7, Carb: 78, Fat: 0.6},
				{FoodName: "pollo", Grams: 150, Pro: 23, Carb: 0, Fat: 1},
			},
		},
		{
			Slot: "pranzo",
			Items: []storage.MealItem{
				{FoodName: "olio", Grams: 10, Pro: 0, Carb: 0, Fat: 100},
			},
		},
	}

	used := UsedBySlot(meals)
	pranzo := used["pranzo"]

	wantPro := 7*2.0 + 23*1.5
	wantCarb := 78 * 2.0
	wantFat := 0.6*2.0 + 1*1.5 + 100*0.1
	if math.Abs(pranzo.Pro-wantPro) > 0.001 {
		t.Errorf("expected pro %f, got %f", wantPro, pranzo.Pro)
	}
	if math.Abs(pranzo.Carb-wantCarb) > 0.001 {
		t.Errorf("expected carb %f, got %f", wantCarb, pranzo.Carb)
	}
	if math.Abs(pranzo.Fat-wantFat) > 0.001 {
		t.Errorf("expected fat %f, got %f", wantFat, pranzo.Fat)
	}
	if math.Abs(pranzo.Kcal-KcalOf(wantPro, wantCarb, wantFat)) > 0.001 {
		t.Errorf("kcal not derived from macros: %f", pranzo.Kcal)
	}
}

func TestActiveDistributionsFiltersMode(t *testing.T) {
	bundle := &storage.PlanBundle{
		Distributions: []storage.Distribution{
			{ID: uuid.New(), Name: "pranzo", IsOn: true, SortOrder: 0},
			{ID: uuid.New(), Name: "colazione", IsOn: false, SortOrder: 0},
			{ID: uuid.New(), Name: "cena", IsOn: true, SortOrder: 1},
		},
	}

	on := ActiveDistributions(bundle, true)
	if len(on) != 2 || on[0].Name != "pranzo" || on[1].Name != "cena" {
		t.Errorf("unexpected ON distributions: %+v", on)
	}

	off := ActiveDistributions(bundle, false)
	if len(off) != 1 || off[0].Name != "colazione" {
		t.Errorf("unexpected OFF distributions: %+v", off)
	}
}
