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

// PatientService manages the minimal patient records the engine reads.
type PatientService interface {
	Create(ctx context.Context, name string) (*model.Patient, error)
	Get(ctx context.Context, patientID int64) (*model.Patient, error)
	List(ctx context.Context, limit, offset int32) ([]model.Patient, error)
}

type patientService struct {
	patients store.PatientStore
}

func NewPatientService(patients store.PatientStore) PatientService {
	return &patientService{patients: patients}
}

func (s *patientService) Create(ctx context.Context, name string) (*model.Patient, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "service.patient"})

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	p := &model.Patient{
		ID:        id.New(),
		Name:      name,
		Status:    model.PatientStatusActive,
		CreatedAt: time.Now(),
	}

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	slog.InfoContext(ctx, "patient created", "patient_id", p.ID)

	return p, nil
}

func (s *patientService) Get(ctx context.Context, patientID int64) (*model.Patient, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("getting patient: %w", err)
	}
	return p, nil
}

func (s *patientService) List(ctx context.Context, limit, offset int32) ([]model.Patient, error) {
	return s.patients.List(ctx, limit, offset)
}
