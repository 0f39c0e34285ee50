package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires every endpoint onto a fresh gin engine.
func NewRouter(h *Handler, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthcheck", HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/patients/:patientID/type", h.PatientType)
		api.GET("/patients/:patientID/services", h.PatientServices)
		api.GET("/patients/:patientID/plans", h.PatientPlans)

		api.POST("/plans", h.CreatePlan)
		api.GET("/plans/:planID", h.GetPlan)
		api.DELETE("/plans/:planID", h.DeletePlan)
		api.GET("/plans/:planID/diff", h.Diff)

		api.POST("/plans/:planID/versions", h.CreateVersion)
		api.POST("/plans/:planID/versions/:versionID/activate", h.ActivateVersion)
		api.PATCH("/plans/:planID/versions/:versionID", h.RenameVersion)
		api.DELETE("/plans/:planID/versions/:versionID", h.DeleteVersion)
		api.GET("/plans/:planID/versions/:versionID/costs", h.VersionCosts)

		api.POST("/plans/:planID/zones", h.ApplyStatus)
		api.DELETE("/plans/:planID/zones/:zone", h.ClearZone)
		api.DELETE("/plans/:planID/zones/:zone/entries/:entryID", h.ClearStatus)
		api.PUT("/plans/:planID/zones/:zone/comment", h.SetZoneComment)

		api.POST("/plans/:planID/progress/seed", h.SeedProgress)
		api.GET("/plans/:planID/progress", h.PlanProgress)
		api.POST("/progress/:recordID/complete", h.CompleteProgress)
		api.POST("/progress/:recordID/cancel", h.CancelProgress)
		api.POST("/progress/:recordID/payments", h.RegisterPayment)
		api.DELETE("/progress/:recordID", h.DeleteProgress)
	}

	return router
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
