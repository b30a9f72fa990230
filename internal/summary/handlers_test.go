package summary

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/plans"
	"github.com/macroscoach/backend/internal/schedules"
	"github.com/macroscoach/backend/internal/storage"
	"github.com/macroscoach/backend/internal/storage/memory"
	"github.com/macroscoach/backend/internal/userctx"
)

type testEnv struct {
	store    *memory.MemoryStorage
	handlers *Handlers
	userID   uuid.UUID
}

// fixedNow is a Wednesday; its week starts Monday 2025-06-09.
var fixedNow = time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	user := &storage.User{Email: "test@example.com", Timezone: "UTC"}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	plansService := plans.NewService(store.GetPlansStorage())
	schedulesService := schedules.NewService(store.GetDayModesStorage())

	service := NewService(
		store.GetMealsStorage(),
		store.GetWorkoutsStorage(),
		store,
		plansService,
		schedulesService,
	)
	service.now = func() time.Time { return fixedNow }

	env := &testEnv{
		store:    store,
		handlers: NewHandlers(service),
		userID:   user.ID,
	}

	// Monday, Wednesday and Friday are training days.
	ctx := userctx.WithUserID(context.Background(), user.ID.String())
	_, err := schedulesService.Replace(ctx, schedules.ReplaceScheduleRequest{
		OnDays:  []int{0, 2, 4},
		OffDays: []int{1, 3, 5, 6},
	})
	if err != nil {
		t.Fatalf("failed to set schedule: %v", err)
	}

	return env
}

func (e *testEnv) request(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(userctx.WithUserID(req.Context(), e.userID.String()))
}

func (e *testEnv) addMeal(t *testing.T, when time.Time, slot string, pro, carb, fat float64) {
	t.Helper()
	err := e.store.GetMealsStorage().CreateMeal(context.Background(), &storage.Meal{
		UserID: e.userID,
		When:   when,
		Slot:   slot,
		Items: []storage.MealItem{
			{FoodName: "pasto", Grams: 100, Pro: pro, Carb: carb, Fat: fat},
		},
	})
	if err != nil {
		t.Fatalf("failed to add meal: %v", err)
	}
}

func TestDaySummary(t *testing.T) {
	env := newTestEnv(t)

	// Monday 2025-06-09 is a training day.
	env.addMeal(t, time.Date(2025, 6, 9, 12, 30, 0, 0, time.UTC), "pranzo", 10, 20, 5)
	env.addMeal(t, time.Date(2025, 6, 9, 20, 0, 0, 0, time.UTC), "cena", 30, 40, 10)

	rec := httptest.NewRecorder()
	env.handlers.HandleDay(rec, env.request(http.MethodGet, "/v1/summary/day?date=2025-06-09"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DaySummary
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Date != "2025-06-09" || !resp.IsOn {
		t.Errorf("unexpected day header: %+v", resp)
	}
	if resp.MealCount != 2 {
		t.Errorf("expected 2 meals, got %d", resp.MealCount)
	}
	if resp.Totals.Pro != 40 || resp.Totals.Carb != 60 || resp.Totals.Fat != 15 {
		t.Errorf("unexpected totals: %+v", resp.Totals)
	}
	wantKcal := 40*4.0 + 60*4.0 + 15*9.0
	if math.Abs(resp.Totals.Kcal-wantKcal) > 0.001 {
		t.Errorf("expected kcal %f, got %f", wantKcal, resp.Totals.Kcal)
	}
	if resp.Limits.Kcal != 2600 {
		t.Errorf("expected training day limits, got %+v", resp.Limits)
	}
}

func TestDaySummaryRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.HandleDay(rec, env.request(http.MethodGet, "/v1/summary/day?date=junk"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWeekSummary(t *testing.T) {
	env := newTestEnv(t)

	env.addMeal(t, time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC), "pranzo", 30, 50, 10)

	rec := httptest.NewRecorder()
	env.handlers.HandleWeek(rec, env.request(http.MethodGet, "/v1/summary/week?start=2025-06-09"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp WeekResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Start != "2025-06-09" || len(resp.Days) != 7 {
		t.Fatalf("unexpected week shape: start=%s days=%d", resp.Start, len(resp.Days))
	}
	if resp.Days[0].Date != "2025-06-09" || !resp.Days[0].IsOn {
		t.Errorf("unexpected Monday: %+v", resp.Days[0])
	}
	if resp.Days[1].IsOn {
		t.Errorf("Tuesday should be a rest day: %+v", resp.Days[1])
	}
	if resp.Days[1].MealCount != 1 || resp.Days[1].Totals.Pro != 30 {
		t.Errorf("unexpected Tuesday totals: %+v", resp.Days[1])
	}
	if resp.Days[6].Date != "2025-06-15" {
		t.Errorf("unexpected last day: %s", resp.Days[6].Date)
	}
}

func TestWeekDefaultsToCurrentWeek(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.HandleWeek(rec, env.request(http.MethodGet, "/v1/summary/week"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp WeekResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Start != "2025-06-09" {
		t.Errorf("expected current week start 2025-06-09, got %s", resp.Start)
	}
}

func TestWeekRejectsNonMondayStart(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handlers.HandleWeek(rec, env.request(http.MethodGet, "/v1/summary/week?start=2025-06-10"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWeeklyCheckWithExplicitTargets(t *testing.T) {
	env := newTestEnv(t)

	// Monday: protein and kcal both on target.
	env.addMeal(t, time.Date(2025, 6, 9, 13, 0, 0, 0, time.UTC), "pranzo", 120, 290, 40) // 2000 kcal
	// Tuesday: both short.
	env.addMeal(t, time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC), "pranzo", 80, 100, 20) // 900 kcal

	err := env.store.GetWorkoutsStorage().CreateWorkout(context.Background(), &storage.Workout{
		UserID: env.userID,
		When:   time.Date(2025, 6, 9, 18, 0, 0, 0, time.UTC),
		Sets:   []storage.WorkoutSet{{Exercise: "squat", Reps: 5, WeightKg: 120}},
	})
	if err != nil {
		t.Fatalf("failed to add workout: %v", err)
	}

	rec := httptest.NewRecorder()
	env.handlers.HandleWeeklyCheck(rec, env.request(http.MethodGet,
		"/v1/summary/weekly-check?start=2025-06-09&protein_target_g=100&kcal_target=2000&min_workouts=1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp WeeklyCheckResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(resp.Days))
	}
	if !resp.Days[0].ProteinHit || !resp.Days[0].KcalInRange {
		t.Errorf("Monday should pass both checks: %+v", resp.Days[0])
	}
	if resp.Days[1].ProteinHit || resp.Days[1].KcalInRange {
		t.Errorf("Tuesday should fail both checks: %+v", resp.Days[1])
	}
	if resp.ProteinDaysHit != 1 || resp.KcalDaysInRange != 1 {
		t.Errorf("unexpected counters: %+v", resp)
	}
	if resp.Workouts != 1 || resp.MinWorkouts != 1 || !resp.WorkoutsOK {
		t.Errorf("unexpected workout check: %+v", resp)
	}
}

func TestWeeklyCheckDefaultsToPlanLimits(t *testing.T) {
	env := newTestEnv(t)

	// Tuesday is a rest day: 2200 kcal, 194 g protein. 2026 kcal is inside
	// the 10% band and protein lands exactly on target.
	env.addMeal(t, time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC), "pranzo", 194, 200, 50)

	rec := httptest.NewRecorder()
	env.handlers.HandleWeeklyCheck(rec, env.request(http.MethodGet, "/v1/summary/weekly-check?start=2025-06-09"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp WeeklyCheckResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if !resp.Days[1].ProteinHit || !resp.Days[1].KcalInRange {
		t.Errorf("Tuesday should pass against plan limits: %+v", resp.Days[1])
	}
	if resp.ProteinDaysHit != 1 || resp.KcalDaysInRange != 1 {
		t.Errorf("unexpected counters: %+v", resp)
	}
	if resp.MinWorkouts != 3 || resp.WorkoutsOK {
		t.Errorf("expected default workout floor unmet: %+v", resp)
	}
}
