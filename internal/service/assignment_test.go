package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/notify"
	"carelattice.app/triage/internal/service"
	"carelattice.app/triage/internal/triage"
)

var _ = Describe("AssignmentService", func() {
	var (
		ctx         context.Context
		patients    *mockPatientStore
		caregivers  *mockCaregiverStore
		assessments *mockAssessmentStore
		assignments *mockAssignmentStore
		txRunner    *mockTxRunner
		producer    *mockProducer
		svc         service.AssignmentService
	)

	newCaregiver := func(id int64, tier *model.Tier) model.Caregiver {
		return model.Caregiver{
			ID:          id,
			Name:        "cg",
			Tier:        tier,
			Status:      model.CaregiverStatusActive,
			MaxPatients: model.DefaultMaxPatients,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		patients = &mockPatientStore{
			getByIDFn: func(_ context.Context, id int64) (*model.Patient, error) {
				return &model.Patient{ID: id, Name: "p", Status: model.PatientStatusActive}, nil
			},
		}
		caregivers = &mockCaregiverStore{}
		assessments = &mockAssessmentStore{}
		assignments = &mockAssignmentStore{}
		txRunner = &mockTxRunner{}
		txRunner.provider = &mockStoreProvider{
			caregivers:  caregivers,
			patients:    patients,
			assessments: assessments,
			assignments: assignments,
		}
		producer = &mockProducer{}

		// A nil client sends every classification through the local
		// heuristic, which keeps the pipeline deterministic here.
		svc = service.NewAssignmentService(
			triage.NewClassifier(nil, 0),
			patients, caregivers, assessments, assignments,
			txRunner, producer,
		)
	})

	It("fails when the patient does not exist", func() {
		patients.getByIDFn = nil

		_, _, err := svc.Assign(ctx, 404, "twisted ankle")

		Expect(err).To(MatchError(service.ErrPatientNotFound))
		Expect(assessments.created).To(BeEmpty())
	})

	It("fails when the patient has been discharged", func() {
		patients.getByIDFn = func(_ context.Context, id int64) (*model.Patient, error) {
			return &model.Patient{ID: id, Status: model.PatientStatusDischarged}, nil
		}

		_, _, err := svc.Assign(ctx, 1, "twisted ankle")

		Expect(err).To(MatchError(service.ErrPatientDischarged))
	})

	It("propagates an empty description", func() {
		_, _, err := svc.Assign(ctx, 1, "   ")

		Expect(err).To(MatchError(triage.ErrEmptyDescription))
	})

	It("fails with no candidates when the roster is empty, keeping the assessment", func() {
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return nil, nil
		}

		_, _, err := svc.Assign(ctx, 1, "minor bruise on the arm")

		Expect(err).To(MatchError(triage.ErrNoCandidates))
		// The assessment is a clinical record; selection failing does not
		// undo it.
		Expect(assessments.created).To(HaveLen(1))
		Expect(assignments.created).To(BeEmpty())
	})

	It("assigns the least-loaded eligible caregiver inside a transaction", func() {
		bronze := model.TierBronze
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return []model.Caregiver{
				newCaregiver(1, &bronze),
				newCaregiver(2, nil),
			}, nil
		}
		assignments.activeCountsFn = func(_ context.Context) (map[int64]int, error) {
			return map[int64]int{1: 2, 2: 0}, nil
		}

		assignment, assessment, err := svc.Assign(ctx, 10, "minor scrape on the knee")

		Expect(err).NotTo(HaveOccurred())
		Expect(assessment.Level).To(Equal(model.SeverityLow))
		Expect(assessment.PatientID).To(Equal(int64(10)))
		Expect(assignment.PatientID).To(Equal(int64(10)))
		Expect(assignment.CaregiverID).To(Equal(int64(2)))
		Expect(assignment.AssignedTier).To(Equal(model.TierBronze))

		Expect(txRunner.calls).To(Equal(1))
		Expect(caregivers.lockedIDs).To(Equal([]int64{2}))
		Expect(assignments.created).To(HaveLen(1))
	})

	It("falls back to the full active roster when no tier matches", func() {
		bronze := model.TierBronze
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return []model.Caregiver{newCaregiver(3, &bronze)}, nil
		}

		assignment, assessment, err := svc.Assign(ctx, 10, "unconscious with severe bleeding")

		Expect(err).NotTo(HaveOccurred())
		Expect(assessment.RequiredTier).To(Equal(model.TierGold))
		Expect(assignment.CaregiverID).To(Equal(int64(3)))
	})

	It("still assigns a caregiver at their advisory capacity", func() {
		over := newCaregiver(5, nil)
		over.MaxPatients = 1
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return []model.Caregiver{over}, nil
		}
		assignments.countActiveByCaregiverFn = func(_ context.Context, _ int64) (int, error) {
			return 3, nil
		}

		assignment, _, err := svc.Assign(ctx, 10, "minor bruise")

		Expect(err).NotTo(HaveOccurred())
		Expect(assignment.CaregiverID).To(Equal(int64(5)))
	})

	It("notifies the caregiver and patient roles after committing", func() {
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return []model.Caregiver{newCaregiver(7, nil)}, nil
		}

		assignment, _, err := svc.Assign(ctx, 10, "minor bruise")

		Expect(err).NotTo(HaveOccurred())
		Expect(producer.events).To(HaveLen(2))
		roles := []notify.Role{producer.events[0].Role, producer.events[1].Role}
		Expect(roles).To(ConsistOf(notify.RoleCaregiver, notify.RolePatient))
		for _, event := range producer.events {
			Expect(event.Kind).To(Equal(notify.EventAssignmentCreated))
			Expect(event.PatientID).To(Equal(int64(10)))
			Expect(*event.CaregiverID).To(Equal(assignment.CaregiverID))
		}
	})

	It("does not fail the assignment when dispatch fails", func() {
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return []model.Caregiver{newCaregiver(7, nil)}, nil
		}
		producer.enqueueFn = func(_ context.Context, _ notify.Event) error {
			return errors.New("redis down")
		}

		_, _, err := svc.Assign(ctx, 10, "minor bruise")

		Expect(err).NotTo(HaveOccurred())
		Expect(assignments.created).To(HaveLen(1))
	})

	It("surfaces a failed transactional write", func() {
		caregivers.listActiveFn = func(_ context.Context) ([]model.Caregiver, error) {
			return []model.Caregiver{newCaregiver(7, nil)}, nil
		}
		assignments.createFn = func(_ context.Context, _ *model.Assignment) error {
			return errors.New("serialization failure")
		}

		_, _, err := svc.Assign(ctx, 10, "minor bruise")

		Expect(err).To(MatchError(ContainSubstring("recording assignment")))
		Expect(producer.events).To(BeEmpty())
	})
})
