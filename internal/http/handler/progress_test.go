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
)

var _ = Describe("ProgressHandler", func() {
	var (
		router *gin.Engine
		svc    *mockProgressService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockProgressService{}
		h := handler.NewProgressHandler(svc)

		rg := router.Group("/api/v1/progress-updates")
		rg.POST("", h.Submit)
		rg.GET("", h.List)
		rg.GET("/:id", h.Get)
		rg.POST("/:id/self-review", h.SelfReview)
		rg.POST("/:id/decision", h.Decide)
	})

	post := func(path string, body map[string]any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Submit", func() {
		It("returns 201 with the pending update", func() {
			svc.submitFn = func(_ context.Context, patientID, caregiverID int64, payload json.RawMessage) (*model.ProgressUpdate, error) {
				return &model.ProgressUpdate{
					ID:          1,
					PatientID:   patientID,
					SubmittedBy: caregiverID,
					SubmittedAt: time.Now(),
					Payload:     payload,
					Status:      model.ProgressStatusPending,
				}, nil
			}

			w := post("/api/v1/progress-updates", map[string]any{
				"patient_id":   10,
				"caregiver_id": 20,
				"payload":      map[string]any{"mobility": 7},
			})

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("status", "pending_approval"))
		})

		It("returns 400 when the payload is missing", func() {
			w := post("/api/v1/progress-updates", map[string]any{
				"patient_id":   10,
				"caregiver_id": 20,
			})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown patient", func() {
			svc.submitFn = func(_ context.Context, _, _ int64, _ json.RawMessage) (*model.ProgressUpdate, error) {
				return nil, service.ErrPatientNotFound
			}

			w := post("/api/v1/progress-updates", map[string]any{
				"patient_id":   404,
				"caregiver_id": 20,
				"payload":      map[string]any{"mobility": 7},
			})

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 404 for an unknown caregiver", func() {
			svc.submitFn = func(_ context.Context, _, _ int64, _ json.RawMessage) (*model.ProgressUpdate, error) {
				return nil, service.ErrCaregiverNotFound
			}

			w := post("/api/v1/progress-updates", map[string]any{
				"patient_id":   10,
				"caregiver_id": 404,
				"payload":      map[string]any{"mobility": 7},
			})

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("SelfReview", func() {
		It("returns 200 with the annotated update", func() {
			svc.selfAnnotateFn = func(_ context.Context, updateID, _ int64, verdict model.ReviewVerdict) (*model.ProgressUpdate, error) {
				return &model.ProgressUpdate{
					ID:         updateID,
					Status:     model.ProgressStatusPending,
					SelfReview: &model.SelfReview{Verdict: verdict, ReviewedAt: time.Now()},
				}, nil
			}

			w := post("/api/v1/progress-updates/1/self-review", map[string]any{
				"caregiver_id": 20,
				"verdict":      "approve",
			})

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("status", "pending_approval"))
			Expect(resp).To(HaveKey("self_review"))
		})

		It("returns 403 for a non-owner", func() {
			svc.selfAnnotateFn = func(_ context.Context, _, _ int64, _ model.ReviewVerdict) (*model.ProgressUpdate, error) {
				return nil, service.ErrNotOwner
			}

			w := post("/api/v1/progress-updates/1/self-review", map[string]any{
				"caregiver_id": 999,
				"verdict":      "approve",
			})

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("returns 409 when the update is no longer pending", func() {
			svc.selfAnnotateFn = func(_ context.Context, _, _ int64, _ model.ReviewVerdict) (*model.ProgressUpdate, error) {
				return nil, service.ErrNotPending
			}

			w := post("/api/v1/progress-updates/1/self-review", map[string]any{
				"caregiver_id": 20,
				"verdict":      "approve",
			})

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("returns 400 for a malformed id", func() {
			w := post("/api/v1/progress-updates/abc/self-review", map[string]any{
				"caregiver_id": 20,
				"verdict":      "approve",
			})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Decide", func() {
		It("returns 200 with the decided update", func() {
			svc.decideFn = func(_ context.Context, updateID, clinicianID int64, _ model.ReviewVerdict) (*model.ProgressUpdate, error) {
				now := time.Now()
				return &model.ProgressUpdate{
					ID:        updateID,
					Status:    model.ProgressStatusApproved,
					DecidedBy: &clinicianID,
					DecidedAt: &now,
				}, nil
			}

			w := post("/api/v1/progress-updates/1/decision", map[string]any{
				"clinician_id": 30,
				"verdict":      "approve",
			})

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("status", "approved"))
		})

		It("returns 409 when already decided", func() {
			svc.decideFn = func(_ context.Context, _, _ int64, _ model.ReviewVerdict) (*model.ProgressUpdate, error) {
				return nil, service.ErrAlreadyDecided
			}

			w := post("/api/v1/progress-updates/1/decision", map[string]any{
				"clinician_id": 30,
				"verdict":      "reject",
			})

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("returns 400 for an invalid verdict", func() {
			svc.decideFn = func(_ context.Context, _, _ int64, _ model.ReviewVerdict) (*model.ProgressUpdate, error) {
				return nil, service.ErrInvalidVerdict
			}

			w := post("/api/v1/progress-updates/1/decision", map[string]any{
				"clinician_id": 30,
				"verdict":      "escalate",
			})

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown update", func() {
			svc.decideFn = func(_ context.Context, _, _ int64, _ model.ReviewVerdict) (*model.ProgressUpdate, error) {
				return nil, service.ErrUpdateNotFound
			}

			w := post("/api/v1/progress-updates/404/decision", map[string]any{
				"clinician_id": 30,
				"verdict":      "approve",
			})

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Get", func() {
		It("returns the update", func() {
			svc.getFn = func(_ context.Context, updateID int64) (*model.ProgressUpdate, error) {
				return &model.ProgressUpdate{ID: updateID, Status: model.ProgressStatusPending}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress-updates/1", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown update", func() {
			svc.getFn = func(_ context.Context, _ int64) (*model.ProgressUpdate, error) {
				return nil, service.ErrUpdateNotFound
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress-updates/404", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("List", func() {
		It("lists by patient", func() {
			svc.listByPatientFn = func(_ context.Context, patientID int64) ([]model.ProgressUpdate, error) {
				return []model.ProgressUpdate{{ID: 1, PatientID: patientID, Status: model.ProgressStatusApproved}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress-updates?patient_id=10", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["updates"]).To(HaveLen(1))
		})

		It("lists pending updates", func() {
			svc.listPendingFn = func(_ context.Context) ([]model.ProgressUpdate, error) {
				return []model.ProgressUpdate{{ID: 1}, {ID: 2}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress-updates?pending=true", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["updates"]).To(HaveLen(2))
		})

		It("requires a patient_id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/progress-updates", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
