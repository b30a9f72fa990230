package plans

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage/memory"
	"github.com/macroscoach/backend/internal/userctx"
)

func newTestHandlers() *Handlers {
	store := memory.New()
	return NewHandlers(NewService(store.GetPlansStorage()))
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

func TestGetPlanBootstrapsDefaults(t *testing.T) {
	handlers := newTestHandlers()
	userID := uuid.New().String()

	rec := httptest.NewRecorder()
	handlers.HandleGet(rec, authedRequest(http.MethodGet, "/v1/plan", nil, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp PlanResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.On.Limits.Kcal != 2600 || resp.On.Limits.Carb != 360 || resp.On.Limits.Pro != 194 || resp.On.Limits.Fat != 45 {
		t.Errorf("unexpected ON limits: %+v", resp.On.Limits)
	}
	if resp.Off.Limits.Kcal != 2200 || resp.Off.Limits.Carb != 200 || resp.Off.Limits.Pro != 194 || resp.Off.Limits.Fat != 55 {
		t.Errorf("unexpected OFF limits: %+v", resp.Off.Limits)
	}
	if len(resp.On.Distributions) != 5 {
		t.Errorf("expected 5 ON slots, got %d", len(resp.On.Distributions))
	}
	if len(resp.Off.Distributions) != 4 {
		t.Errorf("expected 4 OFF slots, got %d", len(resp.Off.Distributions))
	}
	if resp.On.Distributions[0].Name != "pre-workout" {
		t.Errorf("unexpected first ON slot: %s", resp.On.Distributions[0].Name)
	}
	if resp.On.Distributions[0].StartMin != nil || resp.On.Distributions[0].Pct != nil {
		t.Error("default slots must carry no window and no target")
	}
}

func TestGetPlanIsIdempotent(t *testing.T) {
	handlers := newTestHandlers()
	userID := uuid.New().String()

	first := httptest.NewRecorder()
	handlers.HandleGet(first, authedRequest(http.MethodGet, "/v1/plan", nil, userID))
	second := httptest.NewRecorder()
	handlers.HandleGet(second, authedRequest(http.MethodGet, "/v1/plan", nil, userID))

	var a, b PlanResponse
	_ = json.NewDecoder(first.Body).Decode(&a)
	_ = json.NewDecoder(second.Body).Decode(&b)

	if len(a.On.Distributions) != len(b.On.Distributions) {
		t.Errorf("bootstrap ran twice: %d vs %d ON slots", len(a.On.Distributions), len(b.On.Distributions))
	}
}

func replaceBody() ReplacePlanRequest {
	start := 700
	end := 900
	return ReplacePlanRequest{
		On: ModePlanDTO{
			Limits: LimitsDTO{Kcal: 2800, Carb: 380, Pro: 200, Fat: 50},
			Distributions: []DistributionDTO{
				{Name: "pranzo", SortOrder: 0, StartMin: &start, EndMin: &end, Pct: &PctDTO{Carb: 60, Pro: 50, Fat: 40}},
				{Name: "cena", SortOrder: 1, Pct: &PctDTO{Carb: 40, Pro: 50, Fat: 60}},
			},
		},
		Off: ModePlanDTO{
			Limits: LimitsDTO{Kcal: 2000, Carb: 180, Pro: 190, Fat: 60},
			Distributions: []DistributionDTO{
				{Name: "colazione", SortOrder: 0},
				{Name: "cena", SortOrder: 1},
			},
		},
	}
}

func TestReplacePlanRoundTrip(t *testing.T) {
	handlers := newTestHandlers()
	userID := uuid.New().String()

	body, _ := json.Marshal(replaceBody())
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/plan", body, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	getRec := httptest.NewRecorder()
	handlers.HandleGet(getRec, authedRequest(http.MethodGet, "/v1/plan", nil, userID))

	var resp PlanResponse
	if err := json.NewDecoder(getRec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.On.Limits.Kcal != 2800 {
		t.Errorf("expected replaced ON kcal 2800, got %d", resp.On.Limits.Kcal)
	}
	if len(resp.On.Distributions) != 2 {
		t.Fatalf("expected 2 ON slots after replace, got %d", len(resp.On.Distributions))
	}
	pranzo := resp.On.Distributions[0]
	if pranzo.Name != "pranzo" || pranzo.StartMin == nil || *pranzo.StartMin != 700 || *pranzo.EndMin != 900 {
		t.Errorf("pranzo window not preserved: %+v", pranzo)
	}
	if pranzo.Pct == nil || pranzo.Pct.Carb != 60 || pranzo.Pct.Pro != 50 || pranzo.Pct.Fat != 40 {
		t.Errorf("pranzo target not preserved: %+v", pranzo.Pct)
	}
	if len(resp.Off.Distributions) != 2 || resp.Off.Distributions[0].Name != "colazione" {
		t.Errorf("OFF slots not preserved: %+v", resp.Off.Distributions)
	}
}

func TestReplacePlanRejectsBadPctSum(t *testing.T) {
	handlers := newTestHandlers()
	userID := uuid.New().String()

	// bootstrap first so we can prove prior state survives
	boot := httptest.NewRecorder()
	handlers.HandleGet(boot, authedRequest(http.MethodGet, "/v1/plan", nil, userID))

	bad := replaceBody()
	bad.On.Distributions[0].Pct.Carb = 80 // carb sum becomes 120

	body, _ := json.Marshal(bad)
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/plan", body, userID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if errResp.Error.Code != "validation_error" {
		t.Errorf("expected validation_error, got %s", errResp.Error.Code)
	}

	getRec := httptest.NewRecorder()
	handlers.HandleGet(getRec, authedRequest(http.MethodGet, "/v1/plan", nil, userID))
	var resp PlanResponse
	_ = json.NewDecoder(getRec.Body).Decode(&resp)
	if len(resp.On.Distributions) != 5 {
		t.Errorf("prior state lost after failed replace: %d ON slots", len(resp.On.Distributions))
	}
}

func TestReplacePlanToleratesHalfPercentDrift(t *testing.T) {
	handlers := newTestHandlers()
	userID := uuid.New().String()

	req := replaceBody()
	req.On.Distributions[0].Pct.Carb = 60.4 // carb sum 100.4, inside the band

	body, _ := json.Marshal(req)
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/plan", body, userID))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for sum within 100±0.5, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPlanRequiresAuth(t *testing.T) {
	handlers := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/v1/plan", nil)
	rec := httptest.NewRecorder()
	handlers.HandleGet(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
