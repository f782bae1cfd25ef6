package store

import (
	"context"
	"errors"
	"time"

	"carelattice.app/triage/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// CaregiverStore defines the contract for roster data access
type CaregiverStore interface {
	GetByID(ctx context.Context, id int64) (*model.Caregiver, error)
	Create(ctx context.Context, cg *model.Caregiver) error
	Update(ctx context.Context, cg *model.Caregiver) error
	List(ctx context.Context, limit, offset int32) ([]model.Caregiver, error)
	ListActive(ctx context.Context) ([]model.Caregiver, error)
	// LockByID takes a row lock on the caregiver for the duration of the
	// surrounding transaction. Serializes concurrent assignment writes
	// against one caregiver.
	LockByID(ctx context.Context, id int64) error
}

// PatientStore defines the contract for patient record access
type PatientStore interface {
	GetByID(ctx context.Context, id int64) (*model.Patient, error)
	Create(ctx context.Context, p *model.Patient) error
	List(ctx context.Context, limit, offset int32) ([]model.Patient, error)
}

// AssessmentStore persists severity assessments. Rows are immutable.
type AssessmentStore interface {
	Create(ctx context.Context, a *model.SeverityAssessment) error
	ListByPatient(ctx context.Context, patientID int64) ([]model.SeverityAssessment, error)
}

// AssignmentStore defines the contract for the append-only assignment ledger
type AssignmentStore interface {
	Create(ctx context.Context, a *model.Assignment) error
	// CountActiveByCaregiver counts assignments whose patient is still
	// active, for one caregiver.
	CountActiveByCaregiver(ctx context.Context, caregiverID int64) (int, error)
	// ActiveCountsByCaregiver returns the workload snapshot used for
	// least-loaded selection: caregiver id -> active assignment count.
	ActiveCountsByCaregiver(ctx context.Context) (map[int64]int, error)
	ListByCaregiver(ctx context.Context, caregiverID int64) ([]model.Assignment, error)
	ListByPatient(ctx context.Context, patientID int64) ([]model.Assignment, error)
}

// ProgressUpdateStore defines the contract for approval workflow data access
type ProgressUpdateStore interface {
	GetByID(ctx context.Context, id int64) (*model.ProgressUpdate, error)
	Create(ctx context.Context, pu *model.ProgressUpdate) error
	// SetSelfReview records the submitter's annotation. The update only
	// matches rows still in pending_approval; ErrNotFound means the row is
	// missing or already terminal.
	SetSelfReview(ctx context.Context, id int64, verdict model.ReviewVerdict, at time.Time) (*model.ProgressUpdate, error)
	// Decide performs the compare-and-set terminal transition. The update
	// only matches rows still in pending_approval, so a decide/decide race
	// loses with ErrNotFound rather than double-processing.
	Decide(ctx context.Context, id int64, status model.ProgressStatus, decidedBy int64, at time.Time) (*model.ProgressUpdate, error)
	ListByPatient(ctx context.Context, patientID int64) ([]model.ProgressUpdate, error)
	ListPending(ctx context.Context) ([]model.ProgressUpdate, error)
}
