package router

import (
	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/http/handler"
)

// ProgressRouter sets up the approval workflow routes
func ProgressRouter(rg *gin.RouterGroup, h *handler.ProgressHandler) {
	rg.POST("", h.Submit)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/self-review", h.SelfReview)
	rg.POST("/:id/decision", h.Decide)
}
