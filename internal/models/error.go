package models

import (
	"math"
	"time"
)

// ErrorCode representa el código de error
type ErrorCode string

const (
	ErrorCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrorCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrorCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrorCodeConflict          ErrorCode = "CONFLICT"
	ErrorCodeRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorCodeBadGateway        ErrorCode = "BAD_GATEWAY"
	ErrorCodeInternal          ErrorCode = "INTERNAL"
)

// ErrorDetail representa un detalle específico del error
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ErrorResponse representa la respuesta de error estandarizada
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo representa la información del error
type ErrorInfo struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	Details    []ErrorDetail `json:"details,omitempty"`
	RetryAfter int           `json:"retry_after,omitempty"`
}

// NewErrorResponse crea una nueva respuesta de error
func NewErrorResponse(code ErrorCode, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(code),
			Message: message,
		},
	}
}

// NewValidationError crea un error de validación con detalles
func NewValidationError(message string, details []ErrorDetail) ErrorResponse {
	resp := NewErrorResponse(ErrorCodeInvalidRequest, message)
	resp.Error.Details = details
	return resp
}

// NewInvalidTransitionError crea un error para acciones no permitidas en el estado actual
func NewInvalidTransitionError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeInvalidTransition, message)
}

// NewConflictError crea un error de conflicto (idempotencia, concurrencia)
func NewConflictError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeConflict, message)
}

// NewUnauthorizedError crea un error de autenticación
func NewUnauthorizedError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeUnauthorized, message)
}

// NewNotFoundError crea un error de recurso no encontrado
func NewNotFoundError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeNotFound, message)
}

// NewRateLimitedError crea un error de rate limiting
func NewRateLimitedError(message string, retryAfter time.Duration) ErrorResponse {
	resp := NewErrorResponse(ErrorCodeRateLimited, message)
	resp.Error.RetryAfter = int(math.Ceil(retryAfter.Seconds()))
	return resp
}

// NewBadGatewayError crea un error para fallas de transporte con la autoridad
func NewBadGatewayError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeBadGateway, message)
}

// NewInternalError crea un error interno del servidor
func NewInternalError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeInternal, message)
}
