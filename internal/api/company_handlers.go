package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/sifen-service/internal/models"
)

// CreateCompany registra una empresa emisora
func (api *API) CreateCompany(c *gin.Context) {
	var req models.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := api.companies.Create(c.Request.Context(), &req)
	if err != nil {
		api.respondError(c, err, "Error creating company")
		return
	}
	c.JSON(http.StatusCreated, company)
}

// ListCompanies lista las empresas; include_inactive=true agrega las desactivadas
func (api *API) ListCompanies(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	companies, err := api.companies.List(c.Request.Context(), includeInactive)
	if err != nil {
		api.respondError(c, err, "Error listing companies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": companies, "total": len(companies)})
}

// GetCompany obtiene una empresa por ID
func (api *API) GetCompany(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	company, err := api.companies.GetByID(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error retrieving company")
		return
	}
	c.JSON(http.StatusOK, company)
}

// UpdateCompany actualiza los datos de una empresa
func (api *API) UpdateCompany(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := api.companies.Update(c.Request.Context(), id, &req)
	if err != nil {
		api.respondError(c, err, "Error updating company")
		return
	}
	c.JSON(http.StatusOK, company)
}

// DeactivateCompany desactiva una empresa
func (api *API) DeactivateCompany(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := api.companies.Deactivate(c.Request.Context(), id); err != nil {
		api.respondError(c, err, "Error deactivating company")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDashboard resume la facturación de una empresa en un período
func (api *API) GetDashboard(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}

	response, err := api.reports.Dashboard(c.Request.Context(), id, from, to)
	if err != nil {
		api.respondError(c, err, "Error retrieving dashboard")
		return
	}
	c.JSON(http.StatusOK, response)
}
