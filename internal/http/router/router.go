package router

import (
	"github.com/gin-gonic/gin"

	"carelattice.app/triage/internal/http/handler"
	"carelattice.app/triage/internal/service"
)

type RouterConfig struct {
	AdminAPIKey  string
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		triageHandler := handler.NewTriageHandler(services.Assignments())
		TriageRouter(v1.Group("/triage"), triageHandler)

		progressHandler := handler.NewProgressHandler(services.Progress())
		ProgressRouter(v1.Group("/progress-updates"), progressHandler)

		caregiverHandler := handler.NewCaregiverHandler(services.Caregivers(), cfg.AdminAPIKey)
		CaregiverRouter(v1.Group("/caregivers"), caregiverHandler)

		patientHandler := handler.NewPatientHandler(services.Patients())
		PatientRouter(v1.Group("/patients"), patientHandler)
	}
}
