package summary

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) HandleDay(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Day(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleWeek(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Week(r.Context(), r.URL.Query().Get("start"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) HandleWeeklyCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	proteinTarget, err := queryFloat(q.Get("protein_target_g"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "protein_target_g must be a number")
		return
	}
	kcalTarget, err := queryFloat(q.Get("kcal_target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "kcal_target must be a number")
		return
	}
	minWorkouts, err := queryInt(q.Get("min_workouts"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "min_workouts must be an integer")
		return
	}

	resp, err := h.service.WeeklyCheck(r.Context(), q.Get("start"), proteinTarget, kcalTarget, minWorkouts)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func queryFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
