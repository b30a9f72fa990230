package meals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/foods"
	"github.com/macroscoach/backend/internal/localtime"
	"github.com/macroscoach/backend/internal/plans"
	"github.com/macroscoach/backend/internal/schedules"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation failed")
	ErrMealNotFound   = errors.New("meal not found")
	ErrNoSlotMatch    = errors.New("no slot matches this time")
	ErrFoodNotFound   = errors.New("food not found")
	ErrInvalidRequest = errors.New("invalid request")
)

type Service struct {
	mealsStorage storage.MealsStorage
	usersStorage storage.UsersStorage
	plans        *plans.Service
	schedules    *schedules.Service
	foods        *foods.Service

	now func() time.Time
}

func NewService(
	mealsStorage storage.MealsStorage,
	usersStorage storage.UsersStorage,
	plansService *plans.Service,
	schedulesService *schedules.Service,
	foodsService *foods.Service,
) *Service {
	return &Service{
		mealsStorage: mealsStorage,
		usersStorage: usersStorage,
		plans:        plansService,
		schedules:    schedulesService,
		foods:        foodsService,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, req CreateMealRequest) (*MealDTO, error) {
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

	slot := req.Slot
	if slot == "" {
		resolved, err := s.resolveSlot(ctx, userID, when)
		if err != nil {
			return nil, err
		}
		slot = resolved
	}

	meal := &storage.Meal{
		UserID: userID,
		When:   when,
		Slot:   slot,
		Items:  toStorageItems(req.Items),
	}
	if err := s.mealsStorage.CreateMeal(ctx, meal); err != nil {
		return nil, err
	}

	dto := toMealDTO(*meal)
	return &dto, nil
}

// CreateFromBarcode logs a single-item meal from a barcode lookup. Unknown
// barcodes are resolved through Open Food Facts and saved to the catalog.
func (s *Service) CreateFromBarcode(ctx context.Context, code string, grams float64, slot string) (*MealDTO, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if code == "" || grams <= 0 {
		return nil, ErrInvalidRequest
	}

	food, err := s.foods.ResolveForBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, foods.ErrProductNotFound) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}

	when := s.now()
	if slot == "" {
		resolved, err := s.resolveSlot(ctx, userID, when)
		if err != nil {
			return nil, err
		}
		slot = resolved
	}

	meal := &storage.Meal{
		UserID: userID,
		When:   when,
		Slot:   slot,
		Items: []storage.MealItem{{
			FoodID:   &food.ID,
			FoodName: food.Name,
			Grams:    grams,
			Pro:      food.Per100Pro,
			Carb:     food.Per100Carb,
			Fat:      food.Per100Fat,
		}},
	}
	if err := s.mealsStorage.CreateMeal(ctx, meal); err != nil {
		return nil, err
	}

	_ = s.foods.TouchRecent(ctx, userID, food.ID)

	dto := toMealDTO(*meal)
	return &dto, nil
}

// Today assembles the current local day: mode, limits, per-slot used vs
// target, and the day's meals.
func (s *Service) Today(ctx context.Context) (*TodayResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	local := now.In(loc)

	isOn, err := s.schedules.Classify(ctx, userID, localtime.Weekday(local))
	if err != nil {
		return nil, err
	}

	bundle, err := s.plans.Bundle(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := bundle.Plan.Off
	if isOn {
		limits = bundle.Plan.On
	}

	from, to := localtime.DayBounds(now, loc)
	dayMeals, err := s.mealsStorage.ListMealsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	used := plans.UsedBySlot(dayMeals)
	dists := plans.ActiveDistributions(bundle, isOn)
	bySlot := plans.Allocate(limits, dists, bundle.Targets, isOn, used)

	var totals plans.Macros
	for _, m := range used {
		totals.Pro += m.Pro
		totals.Carb += m.Carb
		totals.Fat += m.Fat
	}
	totals.Kcal = plans.KcalOf(totals.Pro, totals.Carb, totals.Fat)

	mealDTOs := make([]MealDTO, 0, len(dayMeals))
	for _, meal := range dayMeals {
		mealDTOs = append(mealDTOs, toMealDTO(meal))
	}

	return &TodayResponse{
		Date:   localtime.DateString(now, loc),
		IsOn:   isOn,
		Limits: plans.LimitsDTO(limits),
		Totals: totals,
		BySlot: bySlot,
		Meals:  mealDTOs,
	}, nil
}

func (s *Service) Get(ctx context.Context, mealID uuid.UUID) (*MealDTO, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	meal, err := s.mealsStorage.GetMeal(ctx, userID, mealID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, err
	}

	dto := toMealDTO(*meal)
	return &dto, nil
}

func (s *Service) Patch(ctx context.Context, mealID uuid.UUID, req PatchMealRequest) (*MealDTO, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.mealsStorage.UpdateFirstItem(ctx, userID, mealID, req.FoodName, req.Grams); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}

	return s.Get(ctx, mealID)
}

func (s *Service) Delete(ctx context.Context, mealID uuid.UUID) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}

	err := s.mealsStorage.DeleteMeal(ctx, userID, mealID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrMealNotFound
	}
	return err
}

// resolveSlot maps an instant to the active slot for the user's local day.
func (s *Service) resolveSlot(ctx context.Context, userID uuid.UUID, when time.Time) (string, error) {
	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return "", err
	}
	local := when.In(loc)

	isOn, err := s.schedules.Classify(ctx, userID, localtime.Weekday(local))
	if err != nil {
		return "", err
	}

	bundle, err := s.plans.Bundle(ctx, userID)
	if err != nil {
		return "", err
	}

	dists := plans.ActiveDistributions(bundle, isOn)
	slot, err := plans.ResolveSlot(dists, localtime.MinuteOfDay(local))
	if errors.Is(err, plans.ErrNoSlotMatch) {
		return "", ErrNoSlotMatch
	}
	return slot, err
}

func (s *Service) userLocation(ctx context.Context, userID uuid.UUID) (*time.Location, error) {
	user, err := s.usersStorage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return localtime.Resolve(user.Timezone), nil
}

func toStorageItems(items []MealItemInput) []storage.MealItem {
	result := make([]storage.MealItem, 0, len(items))
	for _, item := range items {
		result = append(result, storage.MealItem{
			FoodID:   item.FoodID,
			FoodName: item.FoodName,
			Grams:    item.Grams,
			Pro:      item.Pro,
			Carb:     item.Carb,
			Fat:      item.Fat,
		})
	}
	return result
}
