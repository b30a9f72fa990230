package foods

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/openfoodfacts"
	"github.com/macroscoach/backend/internal/storage"
	"github.com/macroscoach/backend/internal/storage/memory"
	"github.com/macroscoach/backend/internal/userctx"
)

type testEnv struct {
	store    *memory.MemoryStorage
	service  *Service
	handlers *Handlers
	offSrv   *httptest.Server
}

func newTestEnv(t *testing.T, offHandler http.HandlerFunc) *testEnv {
	t.Helper()

	if offHandler == nil {
		offHandler = func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}
	}
	offSrv := httptest.NewServer(offHandler)
	t.Cleanup(offSrv.Close)

	store := memory.New()
	service := NewService(
		store.GetFoodsStorage(),
		store.GetMealsStorage(),
		openfoodfacts.NewClient(offSrv.URL, 2*time.Second),
	)
	return &testEnv{
		store:    store,
		service:  service,
		handlers: NewHandlers(service),
		offSrv:   offSrv,
	}
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(userctx.WithUserID(req.Context(), userID))
}

func TestSearchFoods(t *testing.T) {
	env := newTestEnv(t, nil)
	userID := uuid.New().String()

	env.store.GetFoodsStorage().AddFood(storage.Food{Name: "Riso basmati", Per100Kcal: 350})
	env.store.GetFoodsStorage().AddFood(storage.Food{Name: "Pollo", Per100Kcal: 110})

	rec := httptest.NewRecorder()
	env.handlers.HandleSearch(rec, authedRequest(http.MethodGet, "/v1/foods/search?q=riso", nil, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp FoodListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Foods) != 1 || resp.Foods[0].Name != "Riso basmati" {
		t.Errorf("unexpected result: %+v", resp.Foods)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.handlers.HandleSearch(rec, authedRequest(http.MethodGet, "/v1/foods/search", nil, uuid.New().String()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestBarcodeLookupPrefersCatalog(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("catalog hit must not reach Open Food Facts")
	})
	userID := uuid.New().String()

	barcode := "8001234"
	env.store.GetFoodsStorage().AddFood(storage.Food{
		Name:       "Fette biscottate",
		Barcode:    &barcode,
		Per100Kcal: 410,
	})

	req := authedRequest(http.MethodGet, "/v1/foods/barcode/"+barcode, nil, userID)
	req.SetPathValue("code", barcode)
	rec := httptest.NewRecorder()
	env.handlers.HandleLookupBarcode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp BarcodeLookupResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Source != "catalog" || resp.ID == nil {
		t.Errorf("expected catalog hit, got %+v", resp)
	}
}

func TestBarcodeLookupFallsBackToOpenFoodFacts(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/product/555.json" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Latte","nutriments":{"energy-kcal_100g":64,"proteins_100g":3.3,"carbohydrates_100g":4.9,"fat_100g":3.6}}}`))
			return
		}
		http.NotFound(w, r)
	})
	userID := uuid.New().String()

	req := authedRequest(http.MethodGet, "/v1/foods/barcode/555", nil, userID)
	req.SetPathValue("code", "555")
	rec := httptest.NewRecorder()
	env.handlers.HandleLookupBarcode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp BarcodeLookupResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Source != "openfoodfacts" || resp.Name != "Latte" || resp.ID != nil {
		t.Errorf("unexpected lookup result: %+v", resp)
	}

	// lookup alone must not persist
	if _, err := env.store.GetFoodsStorage().GetFoodByBarcode(context.Background(), "555"); err == nil {
		t.Error("lookup persisted the food before confirmation")
	}
}

func TestConfirmBarcodePersistsAndTouchesRecent(t *testing.T) {
	env := newTestEnv(t, nil)
	userUUID := uuid.New()
	userID := userUUID.String()

	body, _ := json.Marshal(ConfirmBarcodeRequest{
		Name: "Latte", Kcal: 64, Pro: 3.3, Carb: 4.9, Fat: 3.6,
	})
	req := authedRequest(http.MethodPut, "/v1/foods/barcode/555", body, userID)
	req.SetPathValue("code", "555")
	rec := httptest.NewRecorder()
	env.handlers.HandleConfirmBarcode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	food, err := env.store.GetFoodsStorage().GetFoodByBarcode(context.Background(), "555")
	if err != nil {
		t.Fatalf("confirmed food not in catalog: %v", err)
	}
	if food.Name != "Latte" {
		t.Errorf("unexpected name: %s", food.Name)
	}

	recents, err := env.store.GetFoodsStorage().ListRecentFoods(context.Background(), userUUID, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recents) != 1 || recents[0].ID != food.ID {
		t.Errorf("confirm did not touch recents: %+v", recents)
	}
}

func TestBarcodeUnknownEverywhere(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/search" || r.URL.Path == "/cgi/search.pl" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"count":0,"products":[]}`))
			return
		}
		http.NotFound(w, r)
	})

	req := authedRequest(http.MethodGet, "/v1/foods/barcode/000", nil, uuid.New().String())
	req.SetPathValue("code", "000")
	rec := httptest.NewRecorder()
	env.handlers.HandleLookupBarcode(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRecentBySlotDeduplicates(t *testing.T) {
	env := newTestEnv(t, nil)
	userUUID := uuid.New()
	userID := userUUID.String()

	mealsStore := env.store.GetMealsStorage()
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i, grams := range []float64{100, 150, 120} {
		_ = mealsStore.CreateMeal(context.Background(), &storage.Meal{
			UserID: userUUID,
			When:   base.Add(time.Duration(i) * time.Hour),
			Slot:   "pranzo",
			Items: []storage.MealItem{
				{FoodName: "riso", Grams: grams, Carb: 78},
			},
		})
	}
	_ = mealsStore.CreateMeal(context.Background(), &storage.Meal{
		UserID: userUUID,
		When:   base.Add(4 * time.Hour),
		Slot:   "pranzo",
		Items: []storage.MealItem{
			{FoodName: "pollo", Grams: 200, Pro: 23},
		},
	})

	rec := httptest.NewRecorder()
	env.handlers.HandleRecentBySlot(rec, authedRequest(http.MethodGet, "/v1/foods/recent-by-slot?slot=pranzo", nil, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp RecentBySlotResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 distinct foods, got %d", len(resp.Items))
	}
	// newest first: pollo, then the latest riso portion
	if resp.Items[0].FoodName != "pollo" {
		t.Errorf("expected pollo first, got %s", resp.Items[0].FoodName)
	}
	if resp.Items[1].FoodName != "riso" || resp.Items[1].Grams != 120 {
		t.Errorf("expected latest riso portion (120g), got %+v", resp.Items[1])
	}
}
