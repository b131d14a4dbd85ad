package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CreateAPIKey emite una API key nueva. La clave solo se muestra en esta respuesta.
func (api *API) CreateAPIKey(c *gin.Context) {
	var req models.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	key, plain, err := api.apiKeys.Create(c.Request.Context(), req.Name)
	if err != nil {
		api.respondError(c, err, "Error creating API key")
		return
	}

	api.logger.WithFields(logrus.Fields{
		"api_key_id": key.ID,
		"name":       key.Name,
	}).Info("API key created")

	c.JSON(http.StatusCreated, models.CreateAPIKeyResponse{
		ID:     key.ID,
		Name:   key.Name,
		APIKey: plain,
	})
}

// RevokeAPIKey desactiva una API key; los requests siguientes con esa clave reciben 401
func (api *API) RevokeAPIKey(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := api.apiKeys.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError("API key not found"))
			return
		}
		api.respondError(c, err, "Error revoking API key")
		return
	}

	api.logger.WithField("api_key_id", id).Info("API key revoked")
	c.Status(http.StatusNoContent)
}
