package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check, без аутентификации
	api.GET("/system/health", h.healthCheck)

	protected := api.Group("")
	protected.Use(AuthMiddleware(h.cfg, h.logger))

	profiles := protected.Group("/profiles")
	{
		profiles.POST("", h.ensureProfile)
		profiles.GET("", h.listProfiles)
		profiles.GET("/me", h.getMyProfile)
		profiles.PATCH("/me", h.updateMyProfile)
		profiles.GET("/:id", h.getProfile)
		profiles.PATCH("/:id", h.updateProfile)
		profiles.DELETE("/:id", h.deleteProfile)
		profiles.POST("/:id/points", h.awardPoints)
	}

	incidents := protected.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.listIncidents)
		incidents.GET("/mine", h.listMyReports)
		incidents.GET("/:id", h.getIncident)
		incidents.PATCH("/:id/status", h.setIncidentStatus)
		incidents.DELETE("/:id", h.deleteIncident)
	}

	protected.GET("/leaderboard", h.getLeaderboard)
	protected.GET("/gamification/tiers", h.getTiers)
	protected.GET("/dashboard/stats", h.getDashboardStats)
}
