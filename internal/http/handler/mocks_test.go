package handler_test

import (
	"context"
	"encoding/json"

	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/service"
)

type mockAssignmentService struct {
	assignFn          func(ctx context.Context, patientID int64, description string) (*model.Assignment, *model.SeverityAssessment, error)
	listByPatientFn   func(ctx context.Context, patientID int64) ([]model.Assignment, error)
	listByCaregiverFn func(ctx context.Context, caregiverID int64) ([]model.Assignment, error)
	listAssessmentsFn func(ctx context.Context, patientID int64) ([]model.SeverityAssessment, error)
}

func (m *mockAssignmentService) Assign(ctx context.Context, patientID int64, description string) (*model.Assignment, *model.SeverityAssessment, error) {
	if m.assignFn != nil {
		return m.assignFn(ctx, patientID, description)
	}
	return nil, nil, nil
}

func (m *mockAssignmentService) ListByPatient(ctx context.Context, patientID int64) ([]model.Assignment, error) {
	if m.listByPatientFn != nil {
		return m.listByPatientFn(ctx, patientID)
	}
	return nil, nil
}

func (m *mockAssignmentService) ListByCaregiver(ctx context.Context, caregiverID int64) ([]model.Assignment, error) {
	if m.listByCaregiverFn != nil {
		return m.listByCaregiverFn(ctx, caregiverID)
	}
	return nil, nil
}

func (m *mockAssignmentService) ListAssessments(ctx context.Context, patientID int64) ([]model.SeverityAssessment, error) {
	if m.listAssessmentsFn != nil {
		return m.listAssessmentsFn(ctx, patientID)
	}
	return nil, nil
}

type mockProgressService struct {
	submitFn        func(ctx context.Context, patientID, caregiverID int64, payload json.RawMessage) (*model.ProgressUpdate, error)
	selfAnnotateFn  func(ctx context.Context, updateID, actingCaregiverID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error)
	decideFn        func(ctx context.Context, updateID, clinicianID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error)
	getFn           func(ctx context.Context, updateID int64) (*model.ProgressUpdate, error)
	listByPatientFn func(ctx context.Context, patientID int64) ([]model.ProgressUpdate, error)
	listPendingFn   func(ctx context.Context) ([]model.ProgressUpdate, error)
}

func (m *mockProgressService) Submit(ctx context.Context, patientID, caregiverID int64, payload json.RawMessage) (*model.ProgressUpdate, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, patientID, caregiverID, payload)
	}
	return nil, nil
}

func (m *mockProgressService) SelfAnnotate(ctx context.Context, updateID, actingCaregiverID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error) {
	if m.selfAnnotateFn != nil {
		return m.selfAnnotateFn(ctx, updateID, actingCaregiverID, verdict)
	}
	return nil, nil
}

func (m *mockProgressService) Decide(ctx context.Context, updateID, clinicianID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error) {
	if m.decideFn != nil {
		return m.decideFn(ctx, updateID, clinicianID, verdict)
	}
	return nil, nil
}

func (m *mockProgressService) Get(ctx context.Context, updateID int64) (*model.ProgressUpdate, error) {
	if m.getFn != nil {
		return m.getFn(ctx, updateID)
	}
	return nil, nil
}

func (m *mockProgressService) ListByPatient(ctx context.Context, patientID int64) ([]model.ProgressUpdate, error) {
	if m.listByPatientFn != nil {
		return m.listByPatientFn(ctx, patientID)
	}
	return nil, nil
}

func (m *mockProgressService) ListPending(ctx context.Context) ([]model.ProgressUpdate, error) {
	if m.listPendingFn != nil {
		return m.listPendingFn(ctx)
	}
	return nil, nil
}

type mockCaregiverService struct {
	createFn func(ctx context.Context, name string, tier *model.Tier, maxPatients int) (*model.Caregiver, error)
	updateFn func(ctx context.Context, caregiverID int64, patch service.CaregiverUpdate) (*model.Caregiver, error)
	getFn    func(ctx context.Context, caregiverID int64) (*model.Caregiver, error)
	listFn   func(ctx context.Context, limit, offset int32) ([]model.Caregiver, error)
}

func (m *mockCaregiverService) Create(ctx context.Context, name string, tier *model.Tier, maxPatients int) (*model.Caregiver, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, tier, maxPatients)
	}
	return nil, nil
}

func (m *mockCaregiverService) Update(ctx context.Context, caregiverID int64, patch service.CaregiverUpdate) (*model.Caregiver, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, caregiverID, patch)
	}
	return nil, nil
}

func (m *mockCaregiverService) Get(ctx context.Context, caregiverID int64) (*model.Caregiver, error) {
	if m.getFn != nil {
		return m.getFn(ctx, caregiverID)
	}
	return nil, nil
}

func (m *mockCaregiverService) List(ctx context.Context, limit, offset int32) ([]model.Caregiver, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

type mockPatientService struct {
	createFn func(ctx context.Context, name string) (*model.Patient, error)
	getFn    func(ctx context.Context, patientID int64) (*model.Patient, error)
	listFn   func(ctx context.Context, limit, offset int32) ([]model.Patient, error)
}

func (m *mockPatientService) Create(ctx context.Context, name string) (*model.Patient, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name)
	}
	return nil, nil
}

func (m *mockPatientService) Get(ctx context.Context, patientID int64) (*model.Patient, error) {
	if m.getFn != nil {
		return m.getFn(ctx, patientID)
	}
	return nil, nil
}

func (m *mockPatientService) List(ctx context.Context, limit, offset int32) ([]model.Patient, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}
