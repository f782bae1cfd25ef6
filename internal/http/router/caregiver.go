package router

import (
	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/http/handler"
)

// CaregiverRouter sets up roster administration routes. All of them require
// the admin API key.
func CaregiverRouter(rg *gin.RouterGroup, h *handler.CaregiverHandler) {
	rg.Use(h.RequireAdminAPIKey())
	{
		rg.POST("", h.Create)
		rg.GET("", h.List)
		rg.GET("/:id", h.Get)
		rg.PATCH("/:id", h.Update)
	}
}
