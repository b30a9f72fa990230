package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/auth"
	"github.com/macroscoach/backend/internal/storage"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
)

type Service struct {
	plansStorage storage.PlansStorage
}

func NewService(plansStorage storage.PlansStorage) *Service {
	return &Service{plansStorage: plansStorage}
}

// Bundle returns the user's plan, bootstrapping the default one on first
// access. Used by every plan-dependent operation, not just GET /v1/plan.
func (s *Service) Bundle(ctx context.Context, userID uuid.UUID) (*storage.PlanBundle, error) {
	bundle, err := s.plansStorage.GetPlan(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.plansStorage.CreateDefaultPlan(ctx, userID, Defaults)
	}
	return bundle, err
}

func (s *Service) Get(ctx context.Context) (*PlanResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	bundle, err := s.Bundle(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(bundle), nil
}

func (s *Service) Replace(ctx context.Context, req ReplacePlanRequest) (*PlanResponse, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Replacing before the first read still bootstraps the plan row.
	if _, err := s.Bundle(ctx, userID); err != nil {
		return nil, err
	}

	dists := make([]storage.DistributionUpsert, 0, len(req.On.Distributions)+len(req.Off.Distributions))
	targets := make([]storage.TargetUpsert, 0)
	collect := func(isOn bool, rows []DistributionDTO) {
		for _, d := range rows {
			dists = append(dists, storage.DistributionUpsert{
				IsOn:      isOn,
				Name:      d.Name,
				SortOrder: d.SortOrder,
				StartMin:  d.StartMin,
				EndMin:    d.EndMin,
			})
			if d.Pct != nil {
				targets = append(targets, storage.TargetUpsert{
					IsOn:    isOn,
					Name:    d.Name,
					PctCarb: d.Pct.Carb,
					PctPro:  d.Pct.Pro,
					PctFat:  d.Pct.Fat,
				})
			}
		}
	}
	collect(true, req.On.Distributions)
	collect(false, req.Off.Distributions)

	on := storage.PlanLimits(req.On.Limits)
	off := storage.PlanLimits(req.Off.Limits)

	bundle, err := s.plansStorage.ReplacePlan(ctx, userID, on, off, dists, targets)
	if err != nil {
		return nil, err
	}
	return toResponse(bundle), nil
}

func toResponse(bundle *storage.PlanBundle) *PlanResponse {
	return &PlanResponse{
		On:  toModeDTO(bundle, true),
		Off: toModeDTO(bundle, false),
	}
}

func toModeDTO(bundle *storage.PlanBundle, isOn bool) ModePlanDTO {
	limits := bundle.Plan.Off
	if isOn {
		limits = bundle.Plan.On
	}

	pcts := make(map[string]PctDTO)
	for _, t := range bundle.Targets {
		if t.IsOn == isOn {
			pcts[t.Name] = PctDTO{Carb: t.PctCarb, Pro: t.PctPro, Fat: t.PctFat}
		}
	}

	dists := make([]DistributionDTO, 0)
	for _, d := range ActiveDistributions(bundle, isOn) {
		dto := DistributionDTO{
			Name:      d.Name,
			SortOrder: d.SortOrder,
			StartMin:  d.StartMin,
			EndMin:    d.EndMin,
		}
		if pct, ok := pcts[d.Name]; ok {
			p := pct
			dto.Pct = &p
		}
		dists = append(dists, dto)
	}

	return ModePlanDTO{
		Limits:        LimitsDTO(limits),
		Distributions: dists,
	}
}
