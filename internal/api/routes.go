package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/models"
)

// RegisterRoutes registra los endpoints de la consola en el grupo v1 ya autenticado
func (api *API) RegisterRoutes(v1 *gin.RouterGroup) {
	companies := v1.Group("/companies")
	{
		companies.POST("", api.CreateCompany)
		companies.GET("", api.ListCompanies)
		companies.GET("/:id", api.GetCompany)
		companies.PUT("/:id", api.UpdateCompany)
		companies.DELETE("/:id", api.DeactivateCompany)
		companies.GET("/:id/dashboard", api.GetDashboard)
	}

	clients := v1.Group("/clients")
	{
		clients.POST("", api.CreateClient)
		clients.GET("", api.ListClients)
		clients.GET("/:id", api.GetClient)
		clients.PUT("/:id", api.UpdateClient)
		clients.DELETE("/:id", api.DeleteClient)
	}

	invoices := v1.Group("/invoices")
	{
		invoices.POST("", api.CreateInvoice)
		invoices.GET("", api.ListInvoices)
		invoices.GET("/:id", api.GetInvoice)
		invoices.GET("/:id/actions", api.GetAvailableActions)
		invoices.POST("/:id/lines", api.AddLine)
		invoices.PUT("/:id/lines/:line", api.UpdateLine)
		invoices.DELETE("/:id/lines/:line", api.RemoveLine)
		invoices.POST("/:id/submit", api.SubmitInvoice)
		invoices.GET("/:id/status", api.QueryInvoiceStatus)
		invoices.POST("/:id/void", api.VoidInvoice)
		invoices.GET("/:id/pdf", api.GetInvoicePDF)
		invoices.POST("/:id/deliver", api.DeliverInvoice)
	}
}

// RegisterAdminRoutes registra los endpoints protegidos por la clave de arranque
func (api *API) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.POST("/apikeys", api.CreateAPIKey)
	admin.DELETE("/apikeys/:id", api.RevokeAPIKey)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondInvalidParam(c, name, "must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		respondInvalidParam(c, name, "is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondInvalidParam(c, name, "must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// dateQuery lee un parámetro YYYY-MM-DD opcional
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		respondInvalidParam(c, name, "must use the YYYY-MM-DD format")
		return nil, false
	}
	return &date, true
}

func lineParam(c *gin.Context) (int, bool) {
	line, err := strconv.Atoi(c.Param("line"))
	if err != nil || line <= 0 {
		respondInvalidParam(c, "line", "must be a positive integer")
		return 0, false
	}
	return line, true
}
