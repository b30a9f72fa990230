package weights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/localtime"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation failed")
	ErrInvalidRequest = errors.New("invalid request")
	ErrWeightNotFound = errors.New("weight not found")
)

type Service struct {
	weightsStorage storage.WeightsStorage
	usersStorage   storage.UsersStorage

	now func() time.Time
}

func NewService(weightsStorage storage.WeightsStorage, usersStorage storage.UsersStorage) *Service {
	return &Service{
		weightsStorage: weightsStorage,
		usersStorage:   usersStorage,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Add(ctx context.Context, req AddWeightRequest) (*WeightDTO, error) {
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

	log := &storage.WeightLog{UserID: userID, When: when, Kg: req.Kg}
	if err := s.weightsStorage.AddWeight(ctx, log); err != nil {
		return nil, err
	}

	dto := toDTO(*log)
	return &dto, nil
}

func (s *Service) List(ctx context.Context) (*WeightListResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	logs, err := s.weightsStorage.ListWeights(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toListResponse(logs), nil
}

// Range lists measurements for local days in [from, to], both YYYY-MM-DD.
func (s *Service) Range(ctx context.Context, fromStr, toStr string) (*WeightListResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	fromDay, err := localtime.ParseDate(fromStr, loc)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	toDay, err := localtime.ParseDate(toStr, loc)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	if toDay.Before(fromDay) {
		return nil, ErrInvalidRequest
	}

	from := fromDay.UTC()
	to := toDay.AddDate(0, 0, 1).UTC()

	logs, err := s.weightsStorage.ListWeightsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return toListResponse(logs), nil
}

// Weekly buckets all measurements by local calendar week.
func (s *Service) Weekly(ctx context.Context) (*WeeklyResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	logs, err := s.weightsStorage.ListWeights(ctx, userID)
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum, min, max float64
		n             int
	}
	buckets := make(map[string]*acc)
	for _, log := range logs {
		monday, _ := localtime.WeekBounds(log.When, loc)
		key := localtime.DateString(monday, loc)
		b, ok := buckets[key]
		if !ok {
			b = &acc{min: log.Kg, max: log.Kg}
			buckets[key] = b
		}
		b.sum += log.Kg
		b.n++
		if log.Kg < b.min {
			b.min = log.Kg
		}
		if log.Kg > b.max {
			b.max = log.Kg
		}
	}

	weeks := make([]WeeklyBucket, 0, len(buckets))
	for key, b := range buckets {
		weeks = append(weeks, WeeklyBucket{
			WeekStart: key,
			Avg:       b.sum / float64(b.n),
			Min:       b.min,
			Max:       b.max,
			N:         b.n,
		})
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart < weeks[j].WeekStart
	})

	return &WeeklyResponse{Weeks: weeks}, nil
}

// Trend fits a least-squares line over all measurements and reports the
// slope scaled to kg per week.
func (s *Service) Trend(ctx context.Context) (*TrendResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	logs, err := s.weightsStorage.ListWeights(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &TrendResponse{N: len(logs)}
	if len(logs) < 2 {
		return resp, nil
	}

	origin := logs[0].When
	var sumX, sumY, sumXX, sumXY float64
	for _, log := range logs {
		x := log.When.Sub(origin).Hours() / 24
		y := log.Kg
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}
	n := float64(len(logs))

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return resp, nil
	}
	slopePerDay := (n*sumXY - sumX*sumY) / denom
	perWeek := slopePerDay * 7
	resp.KgPerWeek = &perWeek
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, weightID uuid.UUID) error {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}

	err := s.weightsStorage.DeleteWeight(ctx, userID, weightID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrWeightNotFound
	}
	return err
}

func (s *Service) userLocation(ctx context.Context, userID uuid.UUID) (*time.Location, error) {
	user, err := s.usersStorage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return localtime.Resolve(user.Timezone), nil
}

func toListResponse(logs []storage.WeightLog) *WeightListResponse {
	result := make([]WeightDTO, 0, len(logs))
	for _, log := range logs {
		result = append(result, toDTO(log))
	}
	return &WeightListResponse{Weights: result}
}
