package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carelattice.app/triage/common/id"
	"carelattice.app/triage/common/logger"
	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/store"
)

var (
	ErrCaregiverNotFound = errors.New("caregiver not found")
	ErrInvalidTier       = errors.New("invalid caregiver tier")
	ErrInvalidStatus     = errors.New("invalid caregiver status")
	ErrEmptyName         = errors.New("name is empty")
)

// CaregiverUpdate carries the mutable roster fields; nil means unchanged.
type CaregiverUpdate struct {
	Tier        *model.Tier
	Status      *model.CaregiverStatus
	MaxPatients *int
}

// CaregiverService manages the roster the triage engine reads.
type CaregiverService interface {
	Create(ctx context.Context, name string, tier *model.Tier, maxPatients int) (*model.Caregiver, error)
	Update(ctx context.Context, caregiverID int64, patch CaregiverUpdate) (*model.Caregiver, error)
	Get(ctx context.Context, caregiverID int64) (*model.Caregiver, error)
	List(ctx context.Context, limit, offset int32) ([]model.Caregiver, error)
}

type caregiverService struct {
	caregivers store.CaregiverStore
}

func NewCaregiverService(caregivers store.CaregiverStore) CaregiverService {
	return &caregiverService{caregivers: caregivers}
}

func (s *caregiverService) Create(ctx context.Context, name string, tier *model.Tier, maxPatients int) (*model.Caregiver, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "service.caregiver"})

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if tier != nil && !tier.Valid() {
		return nil, ErrInvalidTier
	}
	if maxPatients <= 0 {
		maxPatients = model.DefaultMaxPatients
	}

	cg := &model.Caregiver{
		ID:          id.New(),
		Name:        name,
		Tier:        tier,
		Status:      model.CaregiverStatusActive,
		MaxPatients: maxPatients,
		CreatedAt:   time.Now(),
	}

	if err := s.caregivers.Create(ctx, cg); err != nil {
		return nil, fmt.Errorf("creating caregiver: %w", err)
	}

	slog.InfoContext(ctx, "caregiver created",
		"caregiver_id", cg.ID,
		"tier", cg.EffectiveTier(),
		"max_patients", cg.MaxPatients,
	)

	return cg, nil
}

func (s *caregiverService) Update(ctx context.Context, caregiverID int64, patch CaregiverUpdate) (*model.Caregiver, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:   "service.caregiver",
		CaregiverID: logger.Ptr(caregiverID),
	})

	if patch.Tier != nil && !patch.Tier.Valid() {
		return nil, ErrInvalidTier
	}
	if patch.Status != nil && *patch.Status != model.CaregiverStatusActive && *patch.Status != model.CaregiverStatusInactive {
		return nil, ErrInvalidStatus
	}

	cg, err := s.caregivers.GetByID(ctx, caregiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCaregiverNotFound
		}
		return nil, fmt.Errorf("getting caregiver: %w", err)
	}

	if patch.Tier != nil {
		cg.Tier = patch.Tier
	}
	if patch.Status != nil {
		cg.Status = *patch.Status
	}
	if patch.MaxPatients != nil && *patch.MaxPatients > 0 {
		cg.MaxPatients = *patch.MaxPatients
	}

	if err := s.caregivers.Update(ctx, cg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCaregiverNotFound
		}
		return nil, fmt.Errorf("updating caregiver: %w", err)
	}

	slog.InfoContext(ctx, "caregiver updated",
		"tier", cg.EffectiveTier(),
		"status", cg.Status,
		"max_patients", cg.MaxPatients,
	)

	return cg, nil
}

func (s *caregiverService) Get(ctx context.Context, caregiverID int64) (*model.Caregiver, error) {
	cg, err := s.caregivers.GetByID(ctx, caregiverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCaregiverNotFound
		}
		return nil, fmt.Errorf("getting caregiver: %w", err)
	}
	return cg, nil
}

func (s *caregiverService) List(ctx context.Context, limit, offset int32) ([]model.Caregiver, error) {
	return s.caregivers.List(ctx, limit, offset)
}
