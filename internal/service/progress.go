package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carelattice.app/triage/common/id"
	"carelattice.app/triage/common/logger"
	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/notify"
	"carelattice.app/triage/internal/store"
)

var (
	ErrUpdateNotFound = errors.New("progress update not found")
	ErrNotOwner       = errors.New("progress update belongs to another caregiver")
	ErrNotPending     = errors.New("progress update is not pending approval")
	ErrAlreadyDecided = errors.New("progress update has already been decided")
	ErrInvalidVerdict = errors.New("invalid review verdict")
	ErrEmptyPayload   = errors.New("progress payload is empty")
)

// ProgressService manages the approval workflow for caregiver-submitted
// progress updates. Updates are append-only audit records: they move from
// pending_approval to exactly one terminal status and are never deleted.
type ProgressService interface {
	Submit(ctx context.Context, patientID, caregiverID int64, payload json.RawMessage) (*model.ProgressUpdate, error)
	// SelfAnnotate records the submitting caregiver's own verdict. The
	// annotation is advisory; it never changes the authoritative status.
	SelfAnnotate(ctx context.Context, updateID, actingCaregiverID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error)
	// Decide performs the terminal transition on behalf of the supervising
	// clinician.
	Decide(ctx context.Context, updateID, clinicianID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error)
	Get(ctx context.Context, updateID int64) (*model.ProgressUpdate, error)
	ListByPatient(ctx context.Context, patientID int64) ([]model.ProgressUpdate, error)
	ListPending(ctx context.Context) ([]model.ProgressUpdate, error)
}

type progressService struct {
	updates    store.ProgressUpdateStore
	patients   store.PatientStore
	caregivers store.CaregiverStore
	producer   notify.Producer
}

func NewProgressService(updates store.ProgressUpdateStore, patients store.PatientStore, caregivers store.CaregiverStore, producer notify.Producer) ProgressService {
	return &progressService{
		updates:    updates,
		patients:   patients,
		caregivers: caregivers,
		producer:   producer,
	}
}

func (s *progressService) Submit(ctx context.Context, patientID, caregiverID int64, payload json.RawMessage) (*model.ProgressUpdate, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:   "service.progress",
		PatientID:   logger.Ptr(patientID),
		CaregiverID: logger.Ptr(caregiverID),
	})

	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("getting patient: %w", err)
	}

	if _, err := s.caregivers.GetByID(ctx, caregiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCaregiverNotFound
		}
		return nil, fmt.Errorf("getting caregiver: %w", err)
	}

	update := &model.ProgressUpdate{
		ID:          id.New(),
		PatientID:   patientID,
		SubmittedBy: caregiverID,
		SubmittedAt: time.Now(),
		Payload:     payload,
		Status:      model.ProgressStatusPending,
	}

	if err := s.updates.Create(ctx, update); err != nil {
		return nil, fmt.Errorf("creating progress update: %w", err)
	}

	slog.InfoContext(ctx, "progress update submitted",
		"update_id", update.ID,
	)

	s.dispatch(ctx, notify.Event{
		Kind:        notify.EventUpdateSubmitted,
		Role:        notify.RoleClinician,
		PatientID:   patientID,
		CaregiverID: &caregiverID,
		UpdateID:    &update.ID,
	})

	return update, nil
}

func (s *progressService) SelfAnnotate(ctx context.Context, updateID, actingCaregiverID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:   "service.progress",
		UpdateID:    logger.Ptr(updateID),
		CaregiverID: logger.Ptr(actingCaregiverID),
	})

	if !verdict.Valid() {
		return nil, ErrInvalidVerdict
	}

	update, err := s.updates.GetByID(ctx, updateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUpdateNotFound
		}
		return nil, fmt.Errorf("getting progress update: %w", err)
	}

	// Ownership comes before state: a non-owner gets the same answer whether
	// the update is pending or decided.
	if update.SubmittedBy != actingCaregiverID {
		slog.WarnContext(ctx, "self-review rejected, actor is not the submitter",
			"submitted_by", update.SubmittedBy,
		)
		return nil, ErrNotOwner
	}

	if !update.IsPending() {
		return nil, ErrNotPending
	}

	annotated, err := s.updates.SetSelfReview(ctx, updateID, verdict, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with Decide between the read above and the write.
			return nil, ErrNotPending
		}
		return nil, fmt.Errorf("recording self-review: %w", err)
	}

	slog.InfoContext(ctx, "self-review recorded",
		"verdict", verdict,
	)

	return annotated, nil
}

func (s *progressService) Decide(ctx context.Context, updateID, clinicianID int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "service.progress",
		UpdateID:  logger.Ptr(updateID),
	})

	if !verdict.Valid() {
		return nil, ErrInvalidVerdict
	}

	status := model.ProgressStatusApproved
	if verdict == model.VerdictReject {
		status = model.ProgressStatusRejected
	}

	decided, err := s.updates.Decide(ctx, updateID, status, clinicianID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The compare-and-set matched nothing: either the row does not
			// exist or it is already terminal. Re-read to tell them apart.
			if _, getErr := s.updates.GetByID(ctx, updateID); getErr != nil {
				if errors.Is(getErr, store.ErrNotFound) {
					return nil, ErrUpdateNotFound
				}
				return nil, fmt.Errorf("getting progress update: %w", getErr)
			}
			return nil, ErrAlreadyDecided
		}
		return nil, fmt.Errorf("deciding progress update: %w", err)
	}

	slog.InfoContext(ctx, "progress update decided",
		"status", decided.Status,
		"decided_by", clinicianID,
	)

	s.dispatch(ctx, notify.Event{
		Kind:        notify.EventUpdateDecided,
		Role:        notify.RoleCaregiver,
		PatientID:   decided.PatientID,
		CaregiverID: &decided.SubmittedBy,
		UpdateID:    &decided.ID,
		Status:      string(decided.Status),
	})

	return decided, nil
}

func (s *progressService) Get(ctx context.Context, updateID int64) (*model.ProgressUpdate, error) {
	update, err := s.updates.GetByID(ctx, updateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUpdateNotFound
		}
		return nil, fmt.Errorf("getting progress update: %w", err)
	}
	return update, nil
}

func (s *progressService) ListByPatient(ctx context.Context, patientID int64) ([]model.ProgressUpdate, error) {
	return s.updates.ListByPatient(ctx, patientID)
}

func (s *progressService) ListPending(ctx context.Context) ([]model.ProgressUpdate, error) {
	return s.updates.ListPending(ctx)
}

func (s *progressService) dispatch(ctx context.Context, event notify.Event) {
	if s.producer == nil {
		return
	}
	event.TraceID = traceIDFromContext(ctx)
	if err := s.producer.Enqueue(ctx, event); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue progress notification",
			"error", err,
			"kind", event.Kind,
		)
	}
}
