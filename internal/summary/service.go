package summary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/localtime"
	"github.com/macroscoach/backend/internal/plans"
	"github.com/macroscoach/backend/internal/schedules"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

// defaultMinWorkouts is the weekly check's session floor when the caller
// does not pass min_workouts.
const defaultMinWorkouts = 3

// kcalTolerance is the fraction of the kcal target a day may deviate by
// and still count as in range.
const kcalTolerance = 0.10

type Service struct {
	mealsStorage    storage.MealsStorage
	workoutsStorage storage.WorkoutsStorage
	usersStorage    storage.UsersStorage
	plans           *plans.Service
	schedules       *schedules.Service

	now func() time.Time
}

func NewService(
	mealsStorage storage.MealsStorage,
	workoutsStorage storage.WorkoutsStorage,
	usersStorage storage.UsersStorage,
	plansService *plans.Service,
	schedulesService *schedules.Service,
) *Service {
	return &Service{
		mealsStorage:    mealsStorage,
		workoutsStorage: workoutsStorage,
		usersStorage:    usersStorage,
		plans:           plansService,
		schedules:       schedulesService,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Day summarizes one local calendar day. An empty date means today.
func (s *Service) Day(ctx context.Context, date string) (*DaySummary, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	day := s.now()
	if date != "" {
		day, err = localtime.ParseDate(date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
		}
	}

	bundle, err := s.plans.Bundle(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.daySummary(ctx, userID, day, loc, bundle)
}

// Week summarizes the seven days starting at start, which must be a
// Monday-aligned date or empty for the current week.
func (s *Service) Week(ctx context.Context, start string) (*WeekResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekStart, err := s.weekStart(start, loc)
	if err != nil {
		return nil, err
	}

	bundle, err := s.plans.Bundle(ctx, userID)
	if err != nil {
		return nil, err
	}

	days := make([]DaySummary, 0, 7)
	for i := 0; i < 7; i++ {
		day, err := s.daySummary(ctx, userID, weekStart.AddDate(0, 0, i), loc, bundle)
		if err != nil {
			return nil, err
		}
		days = append(days, *day)
	}

	return &WeekResponse{
		Start: localtime.DateString(weekStart, loc),
		Days:  days,
	}, nil
}

// WeeklyCheck scores a week against protein, kcal and workout targets.
// Nil protein or kcal targets fall back to each day's plan limits.
func (s *Service) WeeklyCheck(ctx context.Context, start string, proteinTarget, kcalTarget *float64, minWorkouts *int) (*WeeklyCheckResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	weekStart, err := s.weekStart(start, loc)
	if err != nil {
		return nil, err
	}

	bundle, err := s.plans.Bundle(ctx, userID)
	if err != nil {
		return nil, err
	}

	floor := defaultMinWorkouts
	if minWorkouts != nil {
		if *minWorkouts < 0 {
			return nil, fmt.Errorf("%w: min_workouts must be non-negative", ErrInvalidRequest)
		}
		floor = *minWorkouts
	}

	resp := &WeeklyCheckResponse{
		Start:       localtime.DateString(weekStart, loc),
		Days:        make([]DayCheck, 0, 7),
		MinWorkouts: floor,
	}

	for i := 0; i < 7; i++ {
		day, err := s.daySummary(ctx, userID, weekStart.AddDate(0, 0, i), loc, bundle)
		if err != nil {
			return nil, err
		}

		proTarget := float64(day.Limits.Pro)
		if proteinTarget != nil {
			proTarget = *proteinTarget
		}
		kcalWant := float64(day.Limits.Kcal)
		if kcalTarget != nil {
			kcalWant = *kcalTarget
		}

		check := DayCheck{
			Date:        day.Date,
			IsOn:        day.IsOn,
			Kcal:        day.Totals.Kcal,
			ProteinG:    day.Totals.Pro,
			ProteinHit:  day.Totals.Pro >= proTarget,
			KcalInRange: kcalWant > 0 && math.Abs(day.Totals.Kcal-kcalWant) <= kcalTolerance*kcalWant,
		}
		if check.ProteinHit {
			resp.ProteinDaysHit++
		}
		if check.KcalInRange {
			resp.KcalDaysInRange++
		}
		resp.Days = append(resp.Days, check)
	}

	from, to := localtime.WeekBounds(weekStart, loc)
	count, err := s.workoutsStorage.CountWorkoutsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	resp.Workouts = count
	resp.WorkoutsOK = count >= floor

	return resp, nil
}

func (s *Service) daySummary(ctx context.Context, userID uuid.UUID, day time.Time, loc *time.Location, bundle *storage.PlanBundle) (*DaySummary, error) {
	local := day.In(loc)

	isOn, err := s.schedules.Classify(ctx, userID, localtime.Weekday(local))
	if err != nil {
		return nil, err
	}
	limits := bundle.Plan.Off
	if isOn {
		limits = bundle.Plan.On
	}

	from, to := localtime.DayBounds(day, loc)
	dayMeals, err := s.mealsStorage.ListMealsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	var totals plans.Macros
	for _, used := range plans.UsedBySlot(dayMeals) {
		totals.Pro += used.Pro
		totals.Carb += used.Carb
		totals.Fat += used.Fat
	}
	totals.Kcal = plans.KcalOf(totals.Pro, totals.Carb, totals.Fat)

	return &DaySummary{
		Date:      localtime.DateString(day, loc),
		IsOn:      isOn,
		Totals:    totals,
		Limits:    plans.LimitsDTO(limits),
		MealCount: len(dayMeals),
	}, nil
}

// weekStart resolves the Monday anchoring the requested week. An empty
// start means the current week; a non-Monday date is rejected.
func (s *Service) weekStart(start string, loc *time.Location) (time.Time, error) {
	if start == "" {
		from, _ := localtime.WeekBounds(s.now(), loc)
		return from, nil
	}
	day, err := localtime.ParseDate(start, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if localtime.Weekday(day) != 0 {
		return time.Time{}, fmt.Errorf("%w: start must be a Monday", ErrInvalidRequest)
	}
	return day, nil
}

func (s *Service) userLocation(ctx context.Context, userID uuid.UUID) (*time.Location, error) {
	user, err := s.usersStorage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return localtime.Resolve(user.Timezone), nil
}
