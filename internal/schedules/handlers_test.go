package schedules

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage/memory"
	"github.com/macroscoach/backend/internal/userctx"
)

func newTestService() (*Service, *Handlers) {
	store := memory.New()
	service := NewService(store.GetDayModesStorage())
	return service, NewHandlers(service)
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

func TestReplaceAndGetSchedule(t *testing.T) {
	_, handlers := newTestService()
	userID := uuid.New().String()

	body, _ := json.Marshal(ReplaceScheduleRequest{
		OnDays:  []int{0, 2, 4},
		OffDays: []int{5, 6},
	})
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/schedule", body, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	getRec := httptest.NewRecorder()
	handlers.HandleGet(getRec, authedRequest(http.MethodGet, "/v1/schedule", nil, userID))

	var resp ScheduleResponse
	if err := json.NewDecoder(getRec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.OnDays) != 3 || len(resp.OffDays) != 2 {
		t.Errorf("unexpected schedule: %+v", resp)
	}
}

func TestReplaceRejectsConflictingDay(t *testing.T) {
	_, handlers := newTestService()
	userID := uuid.New().String()

	body, _ := json.Marshal(ReplaceScheduleRequest{
		OnDays:  []int{1, 3},
		OffDays: []int{3},
	})
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/schedule", body, userID))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for conflicting weekday, got %d", rec.Code)
	}
}

func TestReplaceRejectsEmptySchedule(t *testing.T) {
	_, handlers := newTestService()
	userID := uuid.New().String()

	body, _ := json.Marshal(ReplaceScheduleRequest{})
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/schedule", body, userID))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty schedule, got %d", rec.Code)
	}
}

func TestReplaceRejectsWeekdayOutOfRange(t *testing.T) {
	_, handlers := newTestService()
	userID := uuid.New().String()

	body, _ := json.Marshal(ReplaceScheduleRequest{OnDays: []int{7}})
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/schedule", body, userID))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weekday 7, got %d", rec.Code)
	}
}

func TestClassifyDefaultsToOff(t *testing.T) {
	service, handlers := newTestService()
	userUUID := uuid.New()
	userID := userUUID.String()

	for wd := 0; wd < 7; wd++ {
		isOn, err := service.Classify(context.Background(), userUUID, wd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if isOn {
			t.Errorf("weekday %d: expected OFF with no rows", wd)
		}
	}

	body, _ := json.Marshal(ReplaceScheduleRequest{OnDays: []int{2}})
	rec := httptest.NewRecorder()
	handlers.HandleReplace(rec, authedRequest(http.MethodPut, "/v1/schedule", body, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	isOn, err := service.Classify(context.Background(), userUUID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isOn {
		t.Error("weekday 2: expected ON after update")
	}

	// weekday 3 stays undetermined and therefore OFF
	isOn, _ = service.Classify(context.Background(), userUUID, 3)
	if isOn {
		t.Error("weekday 3: expected OFF")
	}
}
