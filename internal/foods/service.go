package foods

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/openfoodfacts"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrProductNotFound = errors.New("product not found")

	errNameRequired   = errors.New("name is required")
	errNegativeMacros = errors.New("macro values must be non-negative")
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100

	// how many meals to scan when collecting distinct recent foods
	recentBySlotScan = 50
)

type Service struct {
	foodsStorage storage.FoodsStorage
	mealsStorage storage.MealsStorage
	off          *openfoodfacts.Client
}

func NewService(foodsStorage storage.FoodsStorage, mealsStorage storage.MealsStorage, off *openfoodfacts.Client) *Service {
	return &Service{
		foodsStorage: foodsStorage,
		mealsStorage: mealsStorage,
		off:          off,
	}
}

func (s *Service) Search(ctx context.Context, q string, limit int) (*FoodListResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if q == "" {
		return nil, ErrInvalidRequest
	}

	rows, err := s.foodsStorage.SearchFoods(ctx, q, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return toListResponse(rows), nil
}

func (s *Service) Recent(ctx context.Context, limit int) (*FoodListResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	rows, err := s.foodsStorage.ListRecentFoods(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return toListResponse(rows), nil
}

// RecentBySlot lists the user's most recent portions for a slot, one entry
// per distinct food, newest first. Feeds the "log the usual" shortcut.
func (s *Service) RecentBySlot(ctx context.Context, slot string, limit int) (*RecentBySlotResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if slot == "" {
		return nil, ErrInvalidRequest
	}
	limit = clampLimit(limit)

	meals, err := s.mealsStorage.ListMealsBySlot(ctx, userID, slot, recentBySlotScan)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	items := make([]RecentBySlotItem, 0, limit)
	for _, meal := range meals {
		for _, item := range meal.Items {
			key := item.FoodName
			if item.FoodID != nil {
				key = item.FoodID.String()
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, RecentBySlotItem{
				FoodID:   item.FoodID,
				FoodName: item.FoodName,
				Grams:    item.Grams,
				Pro:      item.Pro,
				Carb:     item.Carb,
				Fat:      item.Fat,
			})
			if len(items) >= limit {
				return &RecentBySlotResponse{Items: items}, nil
			}
		}
	}
	return &RecentBySlotResponse{Items: items}, nil
}

// LookupBarcode returns the catalog entry for a barcode, falling back to an
// Open Food Facts lookup. The fallback result is not persisted until the
// user confirms it.
func (s *Service) LookupBarcode(ctx context.Context, code string) (*BarcodeLookupResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if code == "" {
		return nil, ErrInvalidRequest
	}

	if food, err := s.foodsStorage.GetFoodByBarcode(ctx, code); err == nil {
		return &BarcodeLookupResponse{
			ID:           &food.ID,
			Barcode:      code,
			Name:         food.Name,
			Kcal:         food.Per100Kcal,
			Pro:          food.Per100Pro,
			Carb:         food.Per100Carb,
			Fat:          food.Per100Fat,
			GramsPerUnit: food.GramsPerUnit,
			Source:       "catalog",
		}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	product, err := s.off.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, openfoodfacts.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &BarcodeLookupResponse{
		Barcode:      code,
		Name:         product.Name,
		Kcal:         product.KcalPer100,
		Pro:          product.ProPer100,
		Carb:         product.CarbPer100,
		Fat:          product.FatPer100,
		GramsPerUnit: product.GramsPerUnit,
		Source:       "openfoodfacts",
	}, nil
}

// ConfirmBarcode saves the food into the catalog keyed by barcode and marks
// it recently used.
func (s *Service) ConfirmBarcode(ctx context.Context, code string, req ConfirmBarcodeRequest) (*FoodDTO, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if code == "" {
		return nil, ErrInvalidRequest
	}
	if err := req.Validate(); err != nil {
		return nil, ErrInvalidRequest
	}

	food, err := s.foodsStorage.UpsertFoodByBarcode(ctx, code, &storage.Food{
		Name:         req.Name,
		Per100Kcal:   req.Kcal,
		Per100Pro:    req.Pro,
		Per100Carb:   req.Carb,
		Per100Fat:    req.Fat,
		GramsPerUnit: req.GramsPerUnit,
	})
	if err != nil {
		return nil, err
	}

	if err := s.foodsStorage.TouchRecent(ctx, userID, food.ID); err != nil {
		return nil, err
	}

	dto := toDTO(*food)
	return &dto, nil
}

// ResolveForBarcode returns the catalog food for a barcode, pulling it from
// Open Food Facts and persisting it when unknown. Used by meal logging.
func (s *Service) ResolveForBarcode(ctx context.Context, code string) (*storage.Food, error) {
	food, err := s.foodsStorage.GetFoodByBarcode(ctx, code)
	if err == nil {
		return food, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	product, err := s.off.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, openfoodfacts.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return s.foodsStorage.UpsertFoodByBarcode(ctx, code, &storage.Food{
		Name:         product.Name,
		Per100Kcal:   product.KcalPer100,
		Per100Pro:    product.ProPer100,
		Per100Carb:   product.CarbPer100,
		Per100Fat:    product.FatPer100,
		GramsPerUnit: product.GramsPerUnit,
	})
}

// TouchRecent marks a catalog food as just used by the user.
func (s *Service) TouchRecent(ctx context.Context, userID, foodID uuid.UUID) error {
	return s.foodsStorage.TouchRecent(ctx, userID, foodID)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

func toListResponse(rows []storage.Food) *FoodListResponse {
	result := make([]FoodDTO, 0, len(rows))
	for _, f := range rows {
		result = append(result, toDTO(f))
	}
	return &FoodListResponse{Foods: result}
}
