package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macroscoach/backend/internal/storage"
)

// PlansMemoryStorage is the in-memory storage for plans, distributions
// and distribution targets.
type PlansMemoryStorage struct {
	mu      sync.RWMutex
	byUser  map[uuid.UUID]*storage.Plan
	dists   map[uuid.UUID][]storage.Distribution       // plan_id -> rows
	targets map[uuid.UUID][]storage.DistributionTarget // plan_id -> rows
}

func NewPlansMemoryStorage() *PlansMemoryStorage {
	return &PlansMemoryStorage{
		byUser:  make(map[uuid.UUID]*storage.Plan),
		dists:   make(map[uuid.UUID][]storage.Distribution),
		targets: make(map[uuid.UUID][]storage.DistributionTarget),
	}
}

func (s *PlansMemoryStorage) GetPlan(ctx context.Context, userID uuid.UUID) (*storage.PlanBundle, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.byUser[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.bundleLocked(plan), nil
}

func (s *PlansMemoryStorage) CreateDefaultPlan(ctx context.Context, userID uuid.UUID, defaults storage.PlanDefaults) (*storage.PlanBundle, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	// Concurrent bootstrap: first writer wins, later callers get its plan.
	if existing, ok := s.byUser[userID]; ok {
		return s.bundleLocked(existing), nil
	}

	now := time.Now().UTC()
	plan := &storage.Plan{
		ID:        uuid.New(),
		UserID:    userID,
		On:        defaults.On,
		Off:       defaults.Off,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byUser[userID] = plan

	rows := make([]storage.Distribution, 0, len(defaults.OnSlots)+len(defaults.OffSlots))
	for i, name := range defaults.OnSlots {
		rows = append(rows, storage.Distribution{
			ID:        uuid.New(),
			PlanID:    plan.ID,
			IsOn:      true,
			Name:      name,
			SortOrder: i,
		})
	}
	for i, name := range defaults.OffSlots {
		rows = append(rows, storage.Distribution{
			ID:        uuid.New(),
			PlanID:    plan.ID,
			IsOn:      false,
			Name:      name,
			SortOrder: i,
		})
	}
	s.dists[plan.ID] = rows

	return s.bundleLocked(plan), nil
}

func (s *PlansMemoryStorage) ReplacePlan(ctx context.Context, userID uuid.UUID, on, off storage.PlanLimits, dists []storage.DistributionUpsert, targets []storage.TargetUpsert) (*storage.PlanBundle, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.byUser[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	plan.On = on
	plan.Off = off
	plan.UpdatedAt = time.Now().UTC()

	newDists := make([]storage.Distribution, 0, len(dists))
	for _, d := range dists {
		newDists = append(newDists, storage.Distribution{
			ID:        uuid.New(),
			PlanID:    plan.ID,
			IsOn:      d.IsOn,
			Name:      d.Name,
			SortOrder: d.SortOrder,
			StartMin:  d.StartMin,
			EndMin:    d.EndMin,
		})
	}
	newTargets := make([]storage.DistributionTarget, 0, len(targets))
	for _, t := range targets {
		newTargets = append(newTargets, storage.DistributionTarget{
			ID:      uuid.New(),
			PlanID:  plan.ID,
			IsOn:    t.IsOn,
			Name:    t.Name,
			PctCarb: t.PctCarb,
			PctPro:  t.PctPro,
			PctFat:  t.PctFat,
		})
	}

	s.dists[plan.ID] = newDists
	s.targets[plan.ID] = newTargets

	return s.bundleLocked(plan), nil
}

func (s *PlansMemoryStorage) bundleLocked(plan *storage.Plan) *storage.PlanBundle {
	dists := make([]storage.Distribution, len(s.dists[plan.ID]))
	copy(dists, s.dists[plan.ID])
	sort.SliceStable(dists, func(i, j int) bool {
		if dists[i].IsOn != dists[j].IsOn {
			return dists[i].IsOn
		}
		return dists[i].SortOrder < dists[j].SortOrder
	})

	targets := make([]storage.DistributionTarget, len(s.targets[plan.ID]))
	copy(targets, s.targets[plan.ID])

	return &storage.PlanBundle{
		Plan:          *plan,
		Distributions: dists,
		Targets:       targets,
	}
}
