package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/model"
	"carelattice.app/triage/internal/service"
)

type CaregiverHandler struct {
	caregiverSvc service.CaregiverService
	adminAPIKey  string
}

func NewCaregiverHandler(caregiverSvc service.CaregiverService, adminAPIKey string) *CaregiverHandler {
	return &CaregiverHandler{
		caregiverSvc: caregiverSvc,
		adminAPIKey:  adminAPIKey,
	}
}

type createCaregiverRequest struct {
	Name        string  `json:"name" binding:"required"`
	Tier        *string `json:"tier"`
	MaxPatients int     `json:"max_patients"`
}

// Create adds a caregiver to the roster (admin only).
func (h *CaregiverHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req createCaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: name is required"})
		return
	}

	var tier *model.Tier
	if req.Tier != nil {
		t := model.Tier(*req.Tier)
		tier = &t
	}

	cg, err := h.caregiverSvc.Create(ctx, req.Name, tier, req.MaxPatients)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is empty"})
		case errors.Is(err, service.ErrInvalidTier):
			c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be bronze, silver or gold"})
		default:
			slog.ErrorContext(ctx, "failed to create caregiver", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create caregiver"})
		}
		return
	}

	c.JSON(http.StatusCreated, cg)
}

type updateCaregiverRequest struct {
	Tier        *string `json:"tier"`
	Status      *string `json:"status"`
	MaxPatients *int    `json:"max_patients"`
}

// Update patches roster fields (admin only).
func (h *CaregiverHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	caregiverID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateCaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := service.CaregiverUpdate{MaxPatients: req.MaxPatients}
	if req.Tier != nil {
		t := model.Tier(*req.Tier)
		patch.Tier = &t
	}
	if req.Status != nil {
		s := model.CaregiverStatus(*req.Status)
		patch.Status = &s
	}

	cg, err := h.caregiverSvc.Update(ctx, caregiverID, patch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTier):
			c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be bronze, silver or gold"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or inactive"})
		case errors.Is(err, service.ErrCaregiverNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "caregiver not found"})
		default:
			slog.ErrorContext(ctx, "failed to update caregiver", "error", err, "caregiver_id", caregiverID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update caregiver"})
		}
		return
	}

	c.JSON(http.StatusOK, cg)
}

type listCaregiversResponse struct {
	Caregivers []model.Caregiver `json:"caregivers"`
}

// List returns the roster (admin only).
func (h *CaregiverHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	caregivers, err := h.caregiverSvc.List(ctx, 100, 0)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list caregivers", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list caregivers"})
		return
	}

	c.JSON(http.StatusOK, listCaregiversResponse{Caregivers: caregivers})
}

// Get returns one roster entry (admin only).
func (h *CaregiverHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	caregiverID, ok := pathID(c, "id")
	if !ok {
		return
	}

	cg, err := h.caregiverSvc.Get(ctx, caregiverID)
	if err != nil {
		if errors.Is(err, service.ErrCaregiverNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "caregiver not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get caregiver", "error", err, "caregiver_id", caregiverID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get caregiver"})
		return
	}

	c.JSON(http.StatusOK, cg)
}

// RequireAdminAPIKey middleware checks for valid admin API key
func (h *CaregiverHandler) RequireAdminAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminAPIKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin API not configured"})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("X-Admin-API-Key")
		if apiKey == "" {
			apiKey = c.GetHeader("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}

		if apiKey != h.adminAPIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
