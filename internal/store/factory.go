package store

import (
	"carelattice.app/triage/core/db"
)

type Stores struct {
	q db.Querier
}

// NewStores builds the store set over a querier. Pass the pool for regular
// operations or an open transaction for transactional ones.
func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Caregivers() CaregiverStore {
	return &caregiverStore{q: s.q}
}

func (s *Stores) Patients() PatientStore {
	return &patientStore{q: s.q}
}

func (s *Stores) Assessments() AssessmentStore {
	return &assessmentStore{q: s.q}
}

func (s *Stores) Assignments() AssignmentStore {
	return &assignmentStore{q: s.q}
}

func (s *Stores) ProgressUpdates() ProgressUpdateStore {
	return &progressUpdateStore{q: s.q}
}
