package plans

import "github.com/macroscoach/backend/internal/storage"

// Defaults is the plan bootstrapped on a user's first plan-dependent
// request. Slot sort order is the list index; default slots carry no
// time windows and no percentage targets.
var Defaults = storage.PlanDefaults{
	On:  storage.PlanLimits{Kcal: 2600, Carb: 360, Pro: 194, Fat: 45},
	Off: storage.PlanLimits{Kcal: 2200, Carb: 200, Pro: 194, Fat: 55},
	OnSlots: []string{
		"pre-workout",
		"intra-workout",
		"post-workout",
		"pranzo",
		"cena",
	},
	OffSlots: []string{
		"colazione",
		"pranzo",
		"cena",
		"snack",
	},
}
