package router

import (
	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/http/handler"
)

// TriageRouter sets up the assignment pipeline routes
func TriageRouter(rg *gin.RouterGroup, h *handler.TriageHandler) {
	rg.POST("/assign", h.Assign)
	rg.GET("/assignments", h.ListAssignments)
	rg.GET("/assessments", h.ListAssessments)
}
