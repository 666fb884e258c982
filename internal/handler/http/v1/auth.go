package v1

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shenikar/mangrove_watch/internal/config"
	"github.com/shenikar/mangrove_watch/internal/models"
	"github.com/sirupsen/logrus"
)

const callerKey = "caller"

// tokenClaims - утверждения токена провайдера идентичности: sub содержит ID профиля
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware аутентифицирует запрос по Bearer JWT или по X-API-Key.
// API-ключ дает системного вызывающего с ролью администратора.
func AuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			if !validAPIKey(cfg.APIKeys, apiKey) {
				log.Warn("Invalid API key provided")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				return
			}
			c.Set(callerKey, models.Caller{ProfileID: uuid.Nil, Role: models.RoleAdmin})
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Warn("Credentials missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token or API key required"})
			return
		}

		caller, err := parseToken(cfg.JWTSecret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.WithError(err).Warn("Invalid bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func validAPIKey(keys []string, apiKey string) bool {
	for _, key := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return true
		}
	}
	return false
}

// parseToken проверяет подпись HS256 и срок действия токена
func parseToken(secret, raw string) (models.Caller, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return models.Caller{}, err
	}

	profileID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Caller{}, fmt.Errorf("subject is not a profile id: %w", err)
	}
	if profileID == uuid.Nil {
		return models.Caller{}, errors.New("subject is empty")
	}

	role := models.RoleUser
	if models.Role(claims.Role) == models.RoleAdmin {
		role = models.RoleAdmin
	}
	return models.Caller{ProfileID: profileID, Role: role}, nil
}

// callerFrom достает вызывающего, сохраненного AuthMiddleware
func callerFrom(c *gin.Context) models.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return models.Caller{}
}

// SentryRecovery перехватывает панику, отправляет её в Sentry и отвечает 500
func SentryRecovery(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		defer func() {
			if rec := recover(); rec != nil {
				hub.RecoverWithContext(c.Request.Context(), rec)
				log.WithField("panic", rec).WithField("path", c.FullPath()).Error("Recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
