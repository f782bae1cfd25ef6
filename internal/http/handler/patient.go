package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/service"
)

type PatientHandler struct {
	patientSvc service.PatientService
}

func NewPatientHandler(patientSvc service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

type createPatientRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create registers a patient record.
func (h *PatientHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: name is required"})
		return
	}

	p, err := h.patientSvc.Create(ctx, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is empty"})
			return
		}
		slog.ErrorContext(ctx, "failed to create patient", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create patient"})
		return
	}

	c.JSON(http.StatusCreated, p)
}

type listPatientsResponse struct {
	Patients []model.Patient `json:"patients"`
}

// List returns registered patients.
func (h *PatientHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	patients, err := h.patientSvc.List(ctx, 100, 0)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list patients", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list patients"})
		return
	}

	c.JSON(http.StatusOK, listPatientsResponse{Patients: patients})
}

// Get returns one patient record.
func (h *PatientHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	patientID, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, service.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get patient", "error", err, "patient_id", patientID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get patient"})
		return
	}

	c.JSON(http.StatusOK, p)
}
