package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
)

const idempotencyHeader = "Idempotency-Key"

// CreateInvoice crea una factura PENDING. Repetir el Idempotency-Key retorna la misma factura con 200.
func (api *API) CreateInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, replayed, err := api.invoices.CreateInvoice(c.Request.Context(), &req, c.GetHeader(idempotencyHeader))
	if err != nil {
		api.respondError(c, err, "Error creating invoice")
		return
	}

	if replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, response)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// ListInvoices lista las facturas de una empresa filtradas por fecha de emisión y estado
func (api *API) ListInvoices(c *gin.Context) {
	companyID, ok := uuidQuery(c, "company_id")
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

	filter := models.InvoiceFilter{CompanyID: companyID, From: from, To: to}
	if raw := c.Query("status"); raw != "" {
		status, err := invoicing.ParseStatus(raw)
		if err != nil {
			respondInvalidParam(c, "status", "must be one of PENDING, SUBMITTED, ACCEPTED, REJECTED, VOIDED")
			return
		}
		filter.Status = &status
	}

	response, err := api.invoices.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		api.respondError(c, err, "Error listing invoices")
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetInvoice obtiene una factura por ID
func (api *API) GetInvoice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	response, err := api.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error retrieving invoice")
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetAvailableActions retorna las acciones habilitadas para el estado actual
func (api *API) GetAvailableActions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	response, err := api.invoices.AvailableActions(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error retrieving invoice actions")
		return
	}
	c.JSON(http.StatusOK, response)
}

// AddLine agrega una línea a una factura PENDING
func (api *API) AddLine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := api.invoices.AddLine(c.Request.Context(), id, req)
	if err != nil {
		api.respondError(c, err, "Error adding invoice line")
		return
	}
	c.JSON(http.StatusCreated, response)
}

// UpdateLine reemplaza una línea de una factura PENDING
func (api *API) UpdateLine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	line, ok := lineParam(c)
	if !ok {
		return
	}
	var req models.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := api.invoices.UpdateLine(c.Request.Context(), id, line, req)
	if err != nil {
		api.respondError(c, err, "Error updating invoice line")
		return
	}
	c.JSON(http.StatusOK, response)
}

// RemoveLine quita una línea de una factura PENDING
func (api *API) RemoveLine(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	line, ok := lineParam(c)
	if !ok {
		return
	}

	response, err := api.invoices.RemoveLine(c.Request.Context(), id, line)
	if err != nil {
		api.respondError(c, err, "Error removing invoice line")
		return
	}
	c.JSON(http.StatusOK, response)
}

// SubmitInvoice envía la factura a SIFEN
func (api *API) SubmitInvoice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	response, err := api.invoices.Submit(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error submitting invoice")
		return
	}
	c.JSON(http.StatusOK, response)
}

// QueryInvoiceStatus consulta el veredicto de SIFEN para una factura SUBMITTED
func (api *API) QueryInvoiceStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	response, err := api.invoices.QueryStatus(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error querying invoice status")
		return
	}
	c.JSON(http.StatusOK, response)
}

// VoidInvoice anula una factura aceptada
func (api *API) VoidInvoice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := api.invoices.Void(c.Request.Context(), id, req.Reason)
	if err != nil {
		api.respondError(c, err, "Error voiding invoice")
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetInvoicePDF descarga el KuDE de la factura
func (api *API) GetInvoicePDF(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	doc, err := api.delivery.RenderKuDE(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error rendering invoice PDF")
		return
	}

	disposition := "attachment"
	if c.Query("inline") == "true" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// DeliverInvoice archiva y envía por email el KuDE de una factura aceptada
func (api *API) DeliverInvoice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	response, err := api.delivery.Deliver(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error delivering invoice")
		return
	}
	c.JSON(http.StatusOK, response)
}
