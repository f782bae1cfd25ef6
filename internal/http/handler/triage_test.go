package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"carelattice.app/triage/internal/http/handler"
	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/service"
	"carelattice.app/triage/internal/triage"
)

var _ = Describe("TriageHandler", func() {
	var (
		router *gin.Engine
		svc    *mockAssignmentService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockAssignmentService{}
		h := handler.NewTriageHandler(svc)
		router.POST("/api/v1/triage/assign", h.Assign)
		router.GET("/api/v1/triage/assignments", h.ListAssignments)
		router.GET("/api/v1/triage/assessments", h.ListAssessments)
	})

	post := func(body map[string]any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/triage/assign", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 201 with the assignment and assessment", func() {
		svc.assignFn = func(_ context.Context, patientID int64, _ string) (*model.Assignment, *model.SeverityAssessment, error) {
			return &model.Assignment{
					ID:           1,
					PatientID:    patientID,
					CaregiverID:  7,
					AssignedTier: model.TierSilver,
					AssignedAt:   time.Now(),
				}, &model.SeverityAssessment{
					ID:           2,
					PatientID:    patientID,
					Score:        6.5,
					Level:        model.SeverityModerate,
					Urgency:      model.UrgencyMedium,
					RequiredTier: model.TierSilver,
				}, nil
		}

		w := post(map[string]any{"patient_id": 42, "description": "twisted knee, heavy swelling"})

		Expect(w.Code).To(Equal(http.StatusCreated))

		var resp map[string]map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["assignment"]).To(HaveKeyWithValue("caregiver_id", float64(7)))
		Expect(resp["assessment"]).To(HaveKeyWithValue("level", "moderate"))
	})

	It("returns 400 when required fields are missing", func() {
		w := post(map[string]any{"patient_id": 42})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unknown patient", func() {
		svc.assignFn = func(_ context.Context, _ int64, _ string) (*model.Assignment, *model.SeverityAssessment, error) {
			return nil, nil, service.ErrPatientNotFound
		}

		w := post(map[string]any{"patient_id": 404, "description": "twisted knee"})

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 409 for a discharged patient", func() {
		svc.assignFn = func(_ context.Context, _ int64, _ string) (*model.Assignment, *model.SeverityAssessment, error) {
			return nil, nil, service.ErrPatientDischarged
		}

		w := post(map[string]any{"patient_id": 1, "description": "twisted knee"})

		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 503 when no active caregivers exist", func() {
		svc.assignFn = func(_ context.Context, _ int64, _ string) (*model.Assignment, *model.SeverityAssessment, error) {
			return nil, nil, triage.ErrNoCandidates
		}

		w := post(map[string]any{"patient_id": 1, "description": "twisted knee"})

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})

	Describe("ListAssignments", func() {
		get := func(query string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/assignments"+query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("lists a patient's assignment history", func() {
			svc.listByPatientFn = func(_ context.Context, patientID int64) ([]model.Assignment, error) {
				return []model.Assignment{{ID: 1, PatientID: patientID, CaregiverID: 7, AssignedTier: model.TierGold}}, nil
			}

			w := get("?patient_id=42")

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["assignments"]).To(HaveLen(1))
			Expect(resp["assignments"][0]).To(HaveKeyWithValue("caregiver_id", float64(7)))
		})

		It("lists a caregiver's assignment history", func() {
			svc.listByCaregiverFn = func(_ context.Context, caregiverID int64) ([]model.Assignment, error) {
				return []model.Assignment{{ID: 1, PatientID: 42, CaregiverID: caregiverID}}, nil
			}

			w := get("?caregiver_id=7")

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 400 when neither filter is supplied", func() {
			w := get("")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ListAssessments", func() {
		It("lists a patient's assessment history", func() {
			svc.listAssessmentsFn = func(_ context.Context, patientID int64) ([]model.SeverityAssessment, error) {
				return []model.SeverityAssessment{{ID: 1, PatientID: patientID, Score: 9.1, Level: model.SeverityExtreme}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/assessments?patient_id=42", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["assessments"]).To(HaveLen(1))
			Expect(resp["assessments"][0]).To(HaveKeyWithValue("level", "extreme"))
		})

		It("requires a patient_id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/triage/assessments", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	It("returns 500 on unexpected errors", func() {
		svc.assignFn = func(_ context.Context, _ int64, _ string) (*model.Assignment, *model.SeverityAssessment, error) {
			return nil, nil, context.DeadlineExceeded
		}

		w := post(map[string]any{"patient_id": 1, "description": "twisted knee"})

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
