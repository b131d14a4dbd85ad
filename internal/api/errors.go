package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/services"
)

// respondError traduce un error de servicio a la respuesta HTTP estandarizada.
// message se usa solo para errores internos.
func (api *API) respondError(c *gin.Context, err error, message string) {
	var vErr *invoicing.ValidationError
	var tErr *invoicing.InvalidTransitionError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, models.NewValidationError("Validation failed", []models.ErrorDetail{
			{Field: vErr.Field, Issue: vErr.Issue},
		}))
	case errors.As(err, &tErr):
		c.JSON(http.StatusConflict, models.NewInvalidTransitionError(tErr.Error()))

	case errors.Is(err, services.ErrInvoiceNotFound),
		errors.Is(err, services.ErrCompanyNotFound),
		errors.Is(err, services.ErrClientNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError(capitalize(err.Error())))

	case errors.Is(err, services.ErrDuplicateRUC),
		errors.Is(err, services.ErrCompanyInactive),
		errors.Is(err, services.ErrIdempotencyConflict),
		errors.Is(err, services.ErrConcurrentModification),
		errors.Is(err, services.ErrSubmissionInFlight),
		errors.Is(err, services.ErrNotDeliverable):
		c.JSON(http.StatusConflict, models.NewConflictError(capitalize(err.Error())))

	case errors.Is(err, services.ErrSubmissionFailed),
		errors.Is(err, services.ErrStatusQueryFailed):
		api.logger.WithError(err).WithField("path", c.FullPath()).Warn("SIFEN gateway call failed")
		c.JSON(http.StatusBadGateway, models.NewBadGatewayError(capitalize(err.Error())))

	default:
		api.logger.WithError(err).WithField("path", c.FullPath()).Error(message)
		c.JSON(http.StatusInternalServerError, models.NewInternalError(message))
	}
}

// respondBindError reporta un cuerpo mal formado o que no pasa las reglas de binding
func respondBindError(c *gin.Context, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		details := make([]models.ErrorDetail, 0, len(vErrs))
		for _, fe := range vErrs {
			details = append(details, models.ErrorDetail{Field: fieldPath(fe), Issue: issueFor(fe)})
		}
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", details))
		return
	}

	c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
		{Field: "body", Issue: err.Error()},
	}))
}

func respondInvalidParam(c *gin.Context, field, issue string) {
	c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request parameter", []models.ErrorDetail{
		{Field: field, Issue: issue},
	}))
}

// fieldPath quita el nombre del struct raíz: CreateInvoiceRequest.lines[0].tax_rate -> lines[0].tax_rate
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func issueFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "tax_rate":
		return "must be one of 0, 5, 10"
	case "currency":
		return "must be PYG or USD"
	case "ruc":
		return "must look like 80012345-6"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must use the %s format", fe.Param())
	case "min", "max", "len":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func capitalize(message string) string {
	if message == "" {
		return message
	}
	return strings.ToUpper(message[:1]) + message[1:]
}
