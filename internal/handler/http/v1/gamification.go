package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// @Summary Get leaderboard
// @Description Top contributors by points; ties go to the earlier join date
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Param limit query int false "Number of contributors, at most 100" default(10)
// @Success 200 {array} ContributorResponse
// @Router /leaderboard [get]
func (h *Handler) getLeaderboard(c *gin.Context) {
	log := h.logger.WithField("method", "getLeaderboard")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	contributors, err := h.leaderboardService.TopContributors(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToContributorResponses(contributors))
}

// @Summary Get tier table
// @Description Tier thresholds and the benefits each one unlocks
// @Tags Gamification
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Success 200 {array} TierResponse
// @Router /gamification/tiers [get]
func (h *Handler) getTiers(c *gin.Context) {
	c.JSON(http.StatusOK, ModelsToTierResponses(h.leaderboardService.Tiers()))
}

// @Summary Get dashboard statistics
// @Description Incident counts per status, profile and points totals, five latest incidents. Admin only.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Security ApiKeyAuth
// @Success 200 {object} DashboardResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /dashboard/stats [get]
func (h *Handler) getDashboardStats(c *gin.Context) {
	log := h.logger.WithField("method", "getDashboardStats")

	stats, err := h.dashboardService.Stats(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToDashboardResponse(stats))
}
