package services

import "errors"

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrCompanyInactive = errors.New("company is inactive")
	ErrDuplicateRUC    = errors.New("a company with this RUC already exists")

	// ErrSubmissionInFlight indica que otra operación sobre la factura retiene el lock
	ErrSubmissionInFlight = errors.New("another operation on this invoice is in progress")
	// ErrIdempotencyConflict indica una clave reutilizada con un cuerpo distinto
	ErrIdempotencyConflict = errors.New("idempotency key already used with a different request")
	// ErrConcurrentModification indica que la factura cambió entre la lectura y la escritura
	ErrConcurrentModification = errors.New("invoice was modified concurrently")
	// ErrSubmissionFailed indica un fallo del canal de envío; la factura sigue PENDING
	ErrSubmissionFailed = errors.New("submission to SIFEN failed")
	// ErrStatusQueryFailed indica un fallo del canal de consulta que no es un timeout
	ErrStatusQueryFailed = errors.New("status query to SIFEN failed")
)

// ErrNotDeliverable indica que solo las facturas ACCEPTED se entregan al receptor
var ErrNotDeliverable = errors.New("only accepted invoices can be delivered")
