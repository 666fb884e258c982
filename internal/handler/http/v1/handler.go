package v1

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/config"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/shenikar/mangrove_watch/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService    service.IncidentService
	profileService     service.ProfileService
	leaderboardService service.LeaderboardService
	dashboardService   service.DashboardService
	logger             *logrus.Logger
	cfg                *config.Config
}

func NewHandler(
	incidentService service.IncidentService,
	profileService service.ProfileService,
	leaderboardService service.LeaderboardService,
	dashboardService service.DashboardService,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		incidentService:    incidentService,
		profileService:     profileService,
		leaderboardService: leaderboardService,
		dashboardService:   dashboardService,
		logger:             logger,
		cfg:                cfg,
	}
}

// respondError переводит ошибку сервиса в HTTP-ответ
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.Is(err, models.ErrAuthorization):
		log.WithError(err).Warn("Caller is not allowed to perform the operation")
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, models.ErrNotFound):
		log.WithError(err).Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvalidTransition):
		log.WithError(err).Warn("Invalid status transition")
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, models.ErrInvalidState):
		log.WithError(err).Warn("Operation not allowed in current state")
		c.JSON(http.StatusConflict, gin.H{"error": "only resolved incidents can be deleted"})
	case errors.Is(err, models.ErrAlreadyExists):
		log.WithError(err).Warn("Resource already exists")
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, models.ErrPersistence):
		log.WithError(err).Error("Storage failure")
		sentry.CaptureException(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		log.WithError(err).Error("Unexpected error")
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON разбирает тело запроса, при ошибке отвечает 400
func bindJSON(c *gin.Context, log *logrus.Entry, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// parseID читает UUID из параметра пути
func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// requireProfile отклоняет системного вызывающего там, где нужен профиль
func requireProfile(c *gin.Context) (models.Caller, bool) {
	caller := callerFrom(c)
	if caller.ProfileID == uuid.Nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "operation requires a user token"})
		return caller, false
	}
	return caller, true
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
