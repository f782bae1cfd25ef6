package service

import (
	"carelattice.app/triage/internal/notify"
	"carelattice.app/triage/internal/store"
	"carelattice.app/triage/internal/triage"
)

type Services struct {
	stores     *store.Stores
	txRunner   TxRunner
	classifier *triage.Classifier
	producer   notify.Producer
}

func NewServices(stores *store.Stores, txRunner TxRunner, classifier *triage.Classifier, producer notify.Producer) *Services {
	return &Services{
		stores:     stores,
		txRunner:   txRunner,
		classifier: classifier,
		producer:   producer,
	}
}

func (s *Services) Assignments() AssignmentService {
	return NewAssignmentService(
		s.classifier,
		s.stores.Patients(),
		s.stores.Caregivers(),
		s.stores.Assessments(),
		s.stores.Assignments(),
		s.txRunner,
		s.producer,
	)
}

func (s *Services) Progress() ProgressService {
	return NewProgressService(s.stores.ProgressUpdates(), s.stores.Patients(), s.stores.Caregivers(), s.producer)
}

func (s *Services) Caregivers() CaregiverService {
	return NewCaregiverService(s.stores.Caregivers())
}

func (s *Services) Patients() PatientService {
	return NewPatientService(s.stores.Patients())
}
