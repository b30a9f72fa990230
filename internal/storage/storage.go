package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors shared by all storage implementations.
var (
	// ErrNotFound is returned when a row does not exist or is not owned
	// by the requesting user. Implementations never distinguish the two.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint is violated
	// (e.g. registering an already-taken email).
	ErrDuplicate = errors.New("duplicate")
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Timezone     string // IANA name, may be empty
	CreatedAt    time.Time
}

// Storage is the root backend handle: user accounts plus lifecycle.
// Domain stores are reached through the concrete type's accessors.
type Storage interface {
	UsersStorage
	Close() error
}

// UsersStorage manages user accounts.
type UsersStorage interface {
	// CreateUser inserts a new user. Returns ErrDuplicate when the email
	// is already registered.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail returns the user with the given email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns the user with the given id.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// PlanLimits is a daily macro/calorie budget.
type PlanLimits struct {
	Kcal int
	Carb int
	Pro  int
	Fat  int
}

// Plan holds the ON and OFF day limits for one user.
// A user has at most one plan (unique on user_id).
type Plan struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	On        PlanLimits
	Off       PlanLimits
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Distribution is a named meal slot within a plan, tagged ON or OFF.
// StartMin/EndMin are minutes since local midnight (0..1439); a slot with
// either bound nil has no time window. StartMin > EndMin denotes a window
// wrapping past midnight.
type Distribution struct {
	ID        uuid.UUID
	PlanID    uuid.UUID
	IsOn      bool
	Name      string
	SortOrder int
	StartMin  *int
	EndMin    *int
}

// DistributionTarget carries the percentage share of each daily macro for
// the slot with the matching name. The name is a join key, not a foreign
// key: a target may reference a slot that no longer exists.
type DistributionTarget struct {
	ID      uuid.UUID
	PlanID  uuid.UUID
	IsOn    bool
	Name    string
	PctCarb float64
	PctPro  float64
	PctFat  float64
}

// PlanBundle is a plan together with all of its distributions and targets.
type PlanBundle struct {
	Plan          Plan
	Distributions []Distribution
	Targets       []DistributionTarget
}

// DistributionUpsert is the input row for replacing distributions.
type DistributionUpsert struct {
	IsOn      bool
	Name      string
	SortOrder int
	StartMin  *int
	EndMin    *int
}

// TargetUpsert is the input row for replacing distribution targets.
type TargetUpsert struct {
	IsOn    bool
	Name    string
	PctCarb float64
	PctPro  float64
	PctFat  float64
}

// PlanDefaults describes the plan created on first access.
type PlanDefaults struct {
	On       PlanLimits
	Off      PlanLimits
	OnSlots  []string // default ON distributions, sort order = index
	OffSlots []string // default OFF distributions, sort order = index
}

// PlansStorage manages plans with their distributions and targets.
type PlansStorage interface {
	// GetPlan returns the user's plan bundle or ErrNotFound.
	GetPlan(ctx context.Context, userID uuid.UUID) (*PlanBundle, error)

	// CreateDefaultPlan creates the plan plus its default distributions as
	// one unit. Losing a concurrent-bootstrap race is not an error: the
	// implementation re-reads and returns the winner's plan.
	CreateDefaultPlan(ctx context.Context, userID uuid.UUID, defaults PlanDefaults) (*PlanBundle, error)

	// ReplacePlan updates the limits and atomically swaps the full set of
	// distributions and targets (delete then reinsert, single transaction).
	// Returns ErrNotFound when the user has no plan.
	ReplacePlan(ctx context.Context, userID uuid.UUID, on, off PlanLimits, dists []DistributionUpsert, targets []TargetUpsert) (*PlanBundle, error)
}

// DayMode marks one weekday (0=Monday..6=Sunday) as a training (ON) or
// rest (OFF) day. A missing row means the day is undetermined.
type DayMode struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Weekday int
	IsOn    bool
}

// DayModeUpsert is the input row for replacing the weekly schedule.
type DayModeUpsert struct {
	Weekday int
	IsOn    bool
}

// DayModesStorage manages the weekly ON/OFF schedule.
type DayModesStorage interface {
	// ListDayModes returns all day-mode rows for the user, weekday ascending.
	ListDayModes(ctx context.Context, userID uuid.UUID) ([]DayMode, error)

	// ReplaceDayModes atomically swaps the user's whole schedule.
	ReplaceDayModes(ctx context.Context, userID uuid.UUID, rows []DayModeUpsert) error
}

// Meal is one logged eating event, assigned to a slot by name.
type Meal struct {
	ID     uuid.UUID
	UserID uuid.UUID
	When   time.Time // UTC
	Slot   string
	Items  []MealItem
}

// MealItem carries grams eaten and the food's per-100g macro values.
// Kcal is always derived as pro*4 + carb*4 + fat*9, never stored.
type MealItem struct {
	ID       uuid.UUID
	MealID   uuid.UUID
	FoodID   *uuid.UUID
	FoodName string
	Grams    float64
	Pro      float64
	Carb     float64
	Fat      float64
}

// MealsStorage manages meals and their items.
type MealsStorage interface {
	// CreateMeal inserts a meal with its items as one unit.
	CreateMeal(ctx context.Context, meal *Meal) error

	// GetMeal returns the meal with items, owner-filtered.
	GetMeal(ctx context.Context, userID, mealID uuid.UUID) (*Meal, error)

	// ListMealsBetween returns the user's meals with when in [from, to),
	// items preloaded, ordered by when ascending.
	ListMealsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Meal, error)

	// ListMealsBySlot returns the user's most recent meals for a slot,
	// newest first, items preloaded.
	ListMealsBySlot(ctx context.Context, userID uuid.UUID, slot string, limit int) ([]Meal, error)

	// UpdateFirstItem patches the first item of a meal (owner-filtered).
	// Nil fields are left unchanged.
	UpdateFirstItem(ctx context.Context, userID, mealID uuid.UUID, foodName *string, grams *float64) (*MealItem, error)

	// DeleteMeal removes a meal and its items, owner-filtered.
	DeleteMeal(ctx context.Context, userID, mealID uuid.UUID) error
}

// WeightLog is one body-weight measurement.
type WeightLog struct {
	ID     uuid.UUID
	UserID uuid.UUID
	When   time.Time // UTC
	Kg     float64
}

// WeightsStorage manages weight logs.
type WeightsStorage interface {
	// AddWeight inserts a weight log.
	AddWeight(ctx context.Context, w *WeightLog) error

	// ListWeights returns all of the user's logs, when ascending.
	ListWeights(ctx context.Context, userID uuid.UUID) ([]WeightLog, error)

	// ListWeightsBetween returns logs with when in [from, to), ascending.
	ListWeightsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]WeightLog, error)

	// DeleteWeight removes one log, owner-filtered.
	DeleteWeight(ctx context.Context, userID, weightID uuid.UUID) error
}

// Workout is one training session with its sets.
type Workout struct {
	ID     uuid.UUID
	UserID uuid.UUID
	When   time.Time // UTC
	Sets   []WorkoutSet
}

// WorkoutSet is one exercise set within a workout.
type WorkoutSet struct {
	ID        uuid.UUID
	WorkoutID uuid.UUID
	Exercise  string
	Reps      int
	WeightKg  float64
}

// WorkoutsStorage manages workouts and their sets.
type WorkoutsStorage interface {
	// CreateWorkout inserts a workout with its sets as one unit.
	CreateWorkout(ctx context.Context, w *Workout) error

	// ListWorkouts returns the user's workouts, newest first, sets preloaded.
	ListWorkouts(ctx context.Context, userID uuid.UUID) ([]Workout, error)

	// CountWorkoutsBetween counts workouts with when in [from, to).
	CountWorkoutsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
}

// Food is a catalog entry with per-100g macro values.
type Food struct {
	ID           uuid.UUID
	Name         string
	Barcode      *string
	Per100Kcal   float64
	Per100Pro    float64
	Per100Carb   float64
	Per100Fat    float64
	GramsPerUnit *float64
}

// FoodsStorage manages the food catalog and per-user recents.
type FoodsStorage interface {
	// SearchFoods returns foods whose name contains q (case-insensitive),
	// name ascending.
	SearchFoods(ctx context.Context, q string, limit int) ([]Food, error)

	// GetFoodByID returns a food by id.
	GetFoodByID(ctx context.Context, id uuid.UUID) (*Food, error)

	// GetFoodByBarcode returns the food with the given barcode.
	GetFoodByBarcode(ctx context.Context, code string) (*Food, error)

	// UpsertFoodByBarcode creates or updates the food keyed by barcode and
	// returns the stored row.
	UpsertFoodByBarcode(ctx context.Context, code string, food *Food) (*Food, error)

	// TouchRecent records that the user just used the food (upsert by
	// user+food, last_used = now).
	TouchRecent(ctx context.Context, userID, foodID uuid.UUID) error

	// ListRecentFoods returns the user's recently used foods, most recent
	// first.
	ListRecentFoods(ctx context.Context, userID uuid.UUID, limit int) ([]Food, error)
}

// ReportMeta describes a generated export.
type ReportMeta struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Format    string // "pdf" or "csv"
	FromDate  string // YYYY-MM-DD
	ToDate    string // YYYY-MM-DD
	ObjectKey *string // blob key (nil in local mode)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
	Data      []byte // inline payload, local mode only
}

// ReportsStorage manages report metadata (and inline payloads in local mode).
type ReportsStorage interface {
	// CreateReport inserts report metadata.
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport returns a report, owner-filtered.
	GetReport(ctx context.Context, userID, reportID uuid.UUID) (*ReportMeta, error)

	// ListReports returns the user's reports, newest first.
	ListReports(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ReportMeta, error)

	// DeleteReport removes a report, owner-filtered.
	DeleteReport(ctx context.Context, userID, reportID uuid.UUID) error
}
