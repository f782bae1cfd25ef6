package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"carelattice.app/triage/common/id"
	"carelattice.app/triage/common/logger"
	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/notify"
	"carelattice.app/triage/internal/store"
	"carelattice.app/triage/internal/triage"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrPatientDischarged = errors.New("patient has been discharged")
)

// AssignmentService runs the triage pipeline: classify the injury, pick the
// least-loaded eligible caregiver and record the assignment.
type AssignmentService interface {
	Assign(ctx context.Context, patientID int64, description string) (*model.Assignment, *model.SeverityAssessment, error)
	ListByPatient(ctx context.Context, patientID int64) ([]model.Assignment, error)
	ListByCaregiver(ctx context.Context, caregiverID int64) ([]model.Assignment, error)
	ListAssessments(ctx context.Context, patientID int64) ([]model.SeverityAssessment, error)
}

type assignmentService struct {
	classifier  *triage.Classifier
	patients    store.PatientStore
	caregivers  store.CaregiverStore
	assessments store.AssessmentStore
	assignments store.AssignmentStore
	txRunner    TxRunner
	producer    notify.Producer
}

func NewAssignmentService(
	classifier *triage.Classifier,
	patients store.PatientStore,
	caregivers store.CaregiverStore,
	assessments store.AssessmentStore,
	assignments store.AssignmentStore,
	txRunner TxRunner,
	producer notify.Producer,
) AssignmentService {
	return &assignmentService{
		classifier:  classifier,
		patients:    patients,
		caregivers:  caregivers,
		assessments: assessments,
		assignments: assignments,
		txRunner:    txRunner,
		producer:    producer,
	}
}

func (s *assignmentService) Assign(ctx context.Context, patientID int64, description string) (*model.Assignment, *model.SeverityAssessment, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "service.assignment",
		PatientID: logger.Ptr(patientID),
	})

	patient, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrPatientNotFound
		}
		return nil, nil, fmt.Errorf("getting patient: %w", err)
	}
	if !patient.IsActive() {
		return nil, nil, ErrPatientDischarged
	}

	assessment, err := s.classifier.Classify(ctx, description)
	if err != nil {
		return nil, nil, err
	}

	assessment.ID = id.New()
	assessment.PatientID = patientID
	assessment.CreatedAt = time.Now()

	// The assessment is persisted regardless of how selection goes; it is an
	// immutable clinical record in its own right.
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, nil, fmt.Errorf("persisting assessment: %w", err)
	}

	slog.InfoContext(ctx, "severity assessed",
		"assessment_id", assessment.ID,
		"score", assessment.Score,
		"level", assessment.Level,
		"required_tier", assessment.RequiredTier,
		"fallback", assessment.IsFallback,
	)

	roster, err := s.caregivers.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading roster: %w", err)
	}

	workloads, err := s.assignments.ActiveCountsByCaregiver(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading workloads: %w", err)
	}

	candidates := triage.EligibleFor(assessment.RequiredTier, roster)

	chosen, err := triage.SelectLeastLoaded(candidates, workloads)
	if err != nil {
		return nil, nil, err
	}

	assignment := &model.Assignment{
		ID:           id.New(),
		PatientID:    patientID,
		CaregiverID:  chosen.ID,
		AssignedTier: chosen.EffectiveTier(),
		AssignedAt:   time.Now(),
	}

	// The selection above read an advisory snapshot. The write locks the
	// chosen caregiver's row and recounts inside the transaction, so
	// concurrent assignments to the same caregiver serialize and the count
	// stays consistent.
	err = s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		if err := sp.Caregivers().LockByID(ctx, chosen.ID); err != nil {
			return fmt.Errorf("locking caregiver: %w", err)
		}

		count, err := sp.Assignments().CountActiveByCaregiver(ctx, chosen.ID)
		if err != nil {
			return fmt.Errorf("recounting workload: %w", err)
		}

		maxPatients := chosen.MaxPatients
		if maxPatients <= 0 {
			maxPatients = model.DefaultMaxPatients
		}
		if count >= maxPatients {
			// Capacity is advisory: availability beats the ceiling, but the
			// overload is worth surfacing.
			slog.WarnContext(ctx, "caregiver assigned beyond capacity",
				"caregiver_id", chosen.ID,
				"active_assignments", count,
				"max_patients", maxPatients)
		}

		return sp.Assignments().Create(ctx, assignment)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recording assignment: %w", err)
	}

	slog.InfoContext(ctx, "patient assigned",
		"assignment_id", assignment.ID,
		"caregiver_id", chosen.ID,
		"assigned_tier", assignment.AssignedTier,
	)

	s.dispatchAssignmentNotifications(ctx, assignment)

	return assignment, assessment, nil
}

// dispatchAssignmentNotifications enqueues one event per notified role.
// Dispatch failures never fail the assignment; the record is already
// committed.
func (s *assignmentService) dispatchAssignmentNotifications(ctx context.Context, a *model.Assignment) {
	if s.producer == nil {
		return
	}

	traceID := traceIDFromContext(ctx)

	for _, role := range []notify.Role{notify.RoleCaregiver, notify.RolePatient} {
		event := notify.Event{
			Kind:        notify.EventAssignmentCreated,
			Role:        role,
			PatientID:   a.PatientID,
			CaregiverID: &a.CaregiverID,
			Tier:        string(a.AssignedTier),
			TraceID:     traceID,
		}
		if err := s.producer.Enqueue(ctx, event); err != nil {
			slog.ErrorContext(ctx, "failed to enqueue assignment notification",
				"error", err,
				"role", role,
				"assignment_id", a.ID)
		}
	}
}

// traceIDFromContext extracts the active trace id so the worker can link its
// delivery span back to the request that produced the event.
func traceIDFromContext(ctx context.Context) *string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return nil
	}
	traceID := sc.TraceID().String()
	return &traceID
}

func (s *assignmentService) ListByPatient(ctx context.Context, patientID int64) ([]model.Assignment, error) {
	return s.assignments.ListByPatient(ctx, patientID)
}

func (s *assignmentService) ListByCaregiver(ctx context.Context, caregiverID int64) ([]model.Assignment, error) {
	return s.assignments.ListByCaregiver(ctx, caregiverID)
}

func (s *assignmentService) ListAssessments(ctx context.Context, patientID int64) ([]model.SeverityAssessment, error) {
	return s.assessments.ListByPatient(ctx, patientID)
}
