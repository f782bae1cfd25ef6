package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/service"
	"carelattice.app/triage/internal/triage"
)

type TriageHandler struct {
	assignSvc service.AssignmentService
}

func NewTriageHandler(assignSvc service.AssignmentService) *TriageHandler {
	return &TriageHandler{assignSvc: assignSvc}
}

type assignRequest struct {
	PatientID   int64  `json:"patient_id" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type assignResponse struct {
	Assignment *model.Assignment         `json:"assignment"`
	Assessment *model.SeverityAssessment `json:"assessment"`
}

// Assign runs the triage pipeline for one injury report.
func (h *TriageHandler) Assign(c *gin.Context) {
	ctx := c.Request.Context()

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: patient_id and description are required"})
		return
	}

	assignment, assessment, err := h.assignSvc.Assign(ctx, req.PatientID, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, triage.ErrEmptyDescription):
			c.JSON(http.StatusBadRequest, gin.H{"error": "description is empty"})
		case errors.Is(err, service.ErrPatientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		case errors.Is(err, service.ErrPatientDischarged):
			c.JSON(http.StatusConflict, gin.H{"error": "patient has been discharged"})
		case errors.Is(err, triage.ErrNoCandidates):
			// No active caregivers at all. The caller can retry once the
			// roster has capacity again.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no active caregivers available"})
		default:
			slog.ErrorContext(ctx, "assignment failed", "error", err, "patient_id", req.PatientID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign caregiver"})
		}
		return
	}

	c.JSON(http.StatusCreated, assignResponse{
		Assignment: assignment,
		Assessment: assessment,
	})
}

type listAssignmentsResponse struct {
	Assignments []model.Assignment `json:"assignments"`
}

// ListAssignments returns the append-only assignment history for a patient
// or a caregiver, depending on which query parameter is supplied.
func (h *TriageHandler) ListAssignments(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("patient_id"); raw != "" {
		patientID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient_id"})
			return
		}
		assignments, err := h.assignSvc.ListByPatient(ctx, patientID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list assignments", "error", err, "patient_id", patientID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assignments"})
			return
		}
		c.JSON(http.StatusOK, listAssignmentsResponse{Assignments: assignments})
		return
	}

	caregiverID, err := strconv.ParseInt(c.Query("caregiver_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patient_id or caregiver_id query parameter is required"})
		return
	}

	assignments, err := h.assignSvc.ListByCaregiver(ctx, caregiverID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list assignments", "error", err, "caregiver_id", caregiverID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assignments"})
		return
	}

	c.JSON(http.StatusOK, listAssignmentsResponse{Assignments: assignments})
}

type listAssessmentsResponse struct {
	Assessments []model.SeverityAssessment `json:"assessments"`
}

// ListAssessments returns a patient's severity assessment history,
// newest first.
func (h *TriageHandler) ListAssessments(c *gin.Context) {
	ctx := c.Request.Context()

	patientID, err := strconv.ParseInt(c.Query("patient_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patient_id query parameter is required"})
		return
	}

	assessments, err := h.assignSvc.ListAssessments(ctx, patientID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list assessments", "error", err, "patient_id", patientID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assessments"})
		return
	}

	c.JSON(http.StatusOK, listAssessmentsResponse{Assessments: assessments})
}
