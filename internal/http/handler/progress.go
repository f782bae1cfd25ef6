package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/service"
)

type ProgressHandler struct {
	progressSvc service.ProgressService
}

func NewProgressHandler(progressSvc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

type submitProgressRequest struct {
	PatientID   int64           `json:"patient_id" binding:"required"`
	CaregiverID int64           `json:"caregiver_id" binding:"required"`
	Payload     json.RawMessage `json:"payload" binding:"required"`
}

// Submit files a new progress update for clinician approval.
func (h *ProgressHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req submitProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: patient_id, caregiver_id and payload are required"})
		return
	}

	update, err := h.progressSvc.Submit(ctx, req.PatientID, req.CaregiverID, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPayload):
			c.JSON(http.StatusBadRequest, gin.H{"error": "payload is empty"})
		case errors.Is(err, service.ErrPatientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		case errors.Is(err, service.ErrCaregiverNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "caregiver not found"})
		default:
			slog.ErrorContext(ctx, "failed to submit progress update", "error", err, "patient_id", req.PatientID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit progress update"})
		}
		return
	}

	c.JSON(http.StatusCreated, update)
}

type selfReviewRequest struct {
	CaregiverID int64  `json:"caregiver_id" binding:"required"`
	Verdict     string `json:"verdict" binding:"required"`
}

// SelfReview records the submitting caregiver's own verdict on a pending
// update. The annotation never changes the update's status.
func (h *ProgressHandler) SelfReview(c *gin.Context) {
	ctx := c.Request.Context()

	updateID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req selfReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: caregiver_id and verdict are required"})
		return
	}

	update, err := h.progressSvc.SelfAnnotate(ctx, updateID, req.CaregiverID, model.ReviewVerdict(req.Verdict))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerdict):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verdict must be approve or reject"})
		case errors.Is(err, service.ErrUpdateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "progress update not found"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the submitting caregiver may self-review"})
		case errors.Is(err, service.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "progress update is no longer pending"})
		default:
			slog.ErrorContext(ctx, "failed to record self-review", "error", err, "update_id", updateID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record self-review"})
		}
		return
	}

	c.JSON(http.StatusOK, update)
}

type decisionRequest struct {
	ClinicianID int64  `json:"clinician_id" binding:"required"`
	Verdict     string `json:"verdict" binding:"required"`
}

// Decide applies the supervising clinician's terminal decision.
func (h *ProgressHandler) Decide(c *gin.Context) {
	ctx := c.Request.Context()

	updateID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: clinician_id and verdict are required"})
		return
	}

	update, err := h.progressSvc.Decide(ctx, updateID, req.ClinicianID, model.ReviewVerdict(req.Verdict))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVerdict):
			c.JSON(http.StatusBadRequest, gin.H{"error": "verdict must be approve or reject"})
		case errors.Is(err, service.ErrUpdateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "progress update not found"})
		case errors.Is(err, service.ErrAlreadyDecided):
			c.JSON(http.StatusConflict, gin.H{"error": "progress update has already been decided"})
		default:
			slog.ErrorContext(ctx, "failed to decide progress update", "error", err, "update_id", updateID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to decide progress update"})
		}
		return
	}

	c.JSON(http.StatusOK, update)
}

// Get returns one progress update by id.
func (h *ProgressHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	updateID, ok := pathID(c, "id")
	if !ok {
		return
	}

	update, err := h.progressSvc.Get(ctx, updateID)
	if err != nil {
		if errors.Is(err, service.ErrUpdateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "progress update not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get progress update", "error", err, "update_id", updateID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get progress update"})
		return
	}

	c.JSON(http.StatusOK, update)
}

type listProgressResponse struct {
	Updates []model.ProgressUpdate `json:"updates"`
}

// List returns the audit history for one patient, or all pending updates
// when pending=true.
func (h *ProgressHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("pending") == "true" {
		updates, err := h.progressSvc.ListPending(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list pending updates", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list progress updates"})
			return
		}
		c.JSON(http.StatusOK, listProgressResponse{Updates: updates})
		return
	}

	patientID, err := strconv.ParseInt(c.Query("patient_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patient_id query parameter is required"})
		return
	}

	updates, err := h.progressSvc.ListByPatient(ctx, patientID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list progress updates", "error", err, "patient_id", patientID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list progress updates"})
		return
	}

	c.JSON(http.StatusOK, listProgressResponse{Updates: updates})
}

// pathID parses an int64 path parameter, answering 400 itself on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
