package api

import (
	"crypto/subtle"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
)

const (
	apiKeyHeader = "X-API-Key"

	ctxAPIKeyID   = "api_key_id"
	ctxAPIKeyHash = "api_key_hash"
)

// APIKeyAuth valida el header X-API-Key contra las claves guardadas
func (api *API) APIKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(apiKeyHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("API key required"))
			return
		}

		hash := database.HashAPIKey(raw)
		key, err := api.apiKeys.GetByHash(c.Request.Context(), hash)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
				return
			}
			api.logger.WithError(err).Error("Error validating API key")
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewInternalError("Error validating API key"))
			return
		}

		if err := api.apiKeys.UpdateLastUsed(c.Request.Context(), key.ID); err != nil {
			api.logger.WithError(err).WithField("api_key_id", key.ID).Warn("Error updating API key last used")
		}

		c.Set(ctxAPIKeyID, key.ID)
		c.Set(ctxAPIKeyHash, hash)
		c.Next()
	}
}

// AdminAuth protege la emisión de API keys con la clave de arranque.
// Sin clave configurada la ruta queda cerrada.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(apiKeyHeader)
		if adminKey == "" || raw == "" || subtle.ConstantTimeCompare([]byte(raw), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("Admin API key required"))
			return
		}
		c.Next()
	}
}

// IPRateLimit limita por IP antes de la autenticación, para que probar claves
// también consuma cuota
func IPRateLimit(limiterInstance *limiter.Limiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforceLimit(c, limiterInstance, "ip:"+c.ClientIP(), logger)
	}
}

// RateLimit limita las peticiones por API key, o por IP si la petición no está autenticada
func RateLimit(limiterInstance *limiter.Limiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(ctxAPIKeyHash)
		if key == "" {
			key = c.ClientIP()
		}
		enforceLimit(c, limiterInstance, key, logger)
	}
}

func enforceLimit(c *gin.Context, limiterInstance *limiter.Limiter, key string, logger *logrus.Logger) {
	context, err := limiterInstance.Get(c.Request.Context(), key)
	if err != nil {
		// Sin store de rate limit la petición sigue
		logger.WithError(err).Warn("Failed to get rate limit context")
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(context.Reset, 10))

	if context.Reached {
		retryAfter := time.Until(time.Unix(context.Reset, 0))
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		logger.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"limit": context.Limit,
		}).Warn("Rate limit exceeded")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewRateLimitedError("Too many requests", retryAfter))
		return
	}

	c.Next()
}
