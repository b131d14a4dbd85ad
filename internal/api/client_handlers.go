package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/sifen-service/internal/models"
)

// CreateClient crea un cliente para una empresa
func (api *API) CreateClient(c *gin.Context) {
	var req models.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	client, err := api.clients.Create(c.Request.Context(), &req)
	if err != nil {
		api.respondError(c, err, "Error creating client")
		return
	}
	c.JSON(http.StatusCreated, client)
}

// ListClients lista los clientes activos de la empresa indicada en company_id
func (api *API) ListClients(c *gin.Context) {
	companyID, ok := uuidQuery(c, "company_id")
	if !ok {
		return
	}

	clients, err := api.clients.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		api.respondError(c, err, "Error listing clients")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": clients, "total": len(clients)})
}

// GetClient obtiene un cliente por ID
func (api *API) GetClient(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	client, err := api.clients.GetByID(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error retrieving client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient actualiza un cliente
func (api *API) UpdateClient(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	client, err := api.clients.Update(c.Request.Context(), id, &req)
	if err != nil {
		api.respondError(c, err, "Error updating client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient desactiva un cliente
func (api *API) DeleteClient(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := api.clients.Delete(c.Request.Context(), id); err != nil {
		api.respondError(c, err, "Error deleting client")
		return
	}
	c.Status(http.StatusNoContent)
}
