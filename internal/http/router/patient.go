package router

import (
	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/http/handler"
)

// PatientRouter sets up patient record routes
func PatientRouter(rg *gin.RouterGroup, h *handler.PatientHandler) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
