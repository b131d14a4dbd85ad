package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/services"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/sirupsen/logrus"
)

// StatusPoller consulta el veredicto de una factura y lo aplica
type StatusPoller interface {
	QueryStatus(ctx context.Context, id uuid.UUID) (*models.InvoiceStatusResponse, error)
}

// Deliverer entrega el KuDE de una factura aceptada
type Deliverer interface {
	Deliver(ctx context.Context, id uuid.UUID) (*models.DeliveryResponse, error)
}

// InvoiceSubmittedData es el payload del evento invoice/submitted
type InvoiceSubmittedData struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	CompanyID uuid.UUID `json:"company_id"`
}

// PollResult es el resultado de una consulta dentro del workflow
type PollResult struct {
	Done   bool   `json:"done"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// StatusPollOutput resume la ejecución del workflow
type StatusPollOutput struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Resolved  bool      `json:"resolved"`
	Delivered bool      `json:"delivered"`
}

// DeliveryResult es el resultado del step de entrega
type DeliveryResult struct {
	Delivered bool   `json:"delivered"`
	Archived  bool   `json:"archived"`
	Emailed   bool   `json:"emailed"`
	Note      string `json:"note,omitempty"`
}

// StatusPollWorkflow consulta periódicamente el estado de una factura SUBMITTED
// hasta recibir un veredicto o agotar los intentos. Si la factura queda ACCEPTED
// y hay un Deliverer, entrega el KuDE en un step aparte.
type StatusPollWorkflow struct {
	poller    StatusPoller
	deliverer Deliverer
	interval  time.Duration
	maxPolls  int
	logger    *logrus.Logger
}

// NewStatusPollWorkflow crea una nueva instancia del workflow. deliverer puede ser nil.
func NewStatusPollWorkflow(poller StatusPoller, deliverer Deliverer, interval time.Duration, maxPolls int, logger *logrus.Logger) *StatusPollWorkflow {
	return &StatusPollWorkflow{
		poller:    poller,
		deliverer: deliverer,
		interval:  interval,
		maxPolls:  maxPolls,
		logger:    logger,
	}
}

// Run es la función registrada en Inngest. Cada espera y cada consulta es un step
// para que un reintento no repita las consultas ya resueltas.
func (w *StatusPollWorkflow) Run(ctx context.Context, input inngestgo.Input[InvoiceSubmittedData]) (any, error) {
	invoiceID := input.Event.Data.InvoiceID
	output := &StatusPollOutput{InvoiceID: invoiceID, Status: string(invoicing.StatusSubmitted)}

	for attempt := 1; attempt <= w.maxPolls; attempt++ {
		step.Sleep(ctx, fmt.Sprintf("wait-%d", attempt), w.interval)

		result, err := step.Run(ctx, fmt.Sprintf("query-status-%d", attempt), func(ctx context.Context) (PollResult, error) {
			return w.Poll(ctx, invoiceID)
		})
		if err != nil {
			return nil, err
		}

		output.Attempts = attempt
		output.Status = result.Status
		if result.Done {
			output.Resolved = true
			if result.Status == string(invoicing.StatusAccepted) && w.deliverer != nil {
				delivery, err := step.Run(ctx, "deliver-kude", func(ctx context.Context) (DeliveryResult, error) {
					return w.Deliver(ctx, invoiceID)
				})
				if err != nil {
					return nil, err
				}
				output.Delivered = delivery.Delivered
			}
			return output, nil
		}
	}

	w.logger.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"attempts":   output.Attempts,
	}).Warn("No SIFEN verdict after maximum polls")
	return output, nil
}

// Poll hace una consulta. Done indica que no hace falta seguir consultando.
// Solo los errores inesperados se retornan para que Inngest reintente el step.
func (w *StatusPollWorkflow) Poll(ctx context.Context, invoiceID uuid.UUID) (PollResult, error) {
	logger := w.logger.WithField("invoice_id", invoiceID)

	response, err := w.poller.QueryStatus(ctx, invoiceID)
	switch {
	case err == nil:
		if response.Status == string(invoicing.StatusSubmitted) {
			return PollResult{Status: response.Status}, nil
		}
		logger.WithField("status", response.Status).Info("SIFEN verdict received")
		return PollResult{Done: true, Status: response.Status}, nil

	case errors.Is(err, services.ErrInvoiceNotFound):
		logger.Warn("Invoice disappeared while polling its status")
		return PollResult{Done: true, Note: "invoice not found"}, nil

	case errors.Is(err, invoicing.ErrInvalidTransition):
		// Otro proceso ya aplicó el veredicto
		var tErr *invoicing.InvalidTransitionError
		status := ""
		if errors.As(err, &tErr) {
			status = string(tErr.From)
		}
		return PollResult{Done: true, Status: status, Note: "already resolved"}, nil

	case errors.Is(err, services.ErrSubmissionInFlight):
		return PollResult{Status: string(invoicing.StatusSubmitted), Note: "invoice busy"}, nil

	case errors.Is(err, services.ErrStatusQueryFailed):
		logger.WithError(err).Warn("Status query failed, will retry on next poll")
		return PollResult{Status: string(invoicing.StatusSubmitted), Note: "query failed"}, nil

	default:
		return PollResult{}, fmt.Errorf("error polling invoice status: %w", err)
	}
}

// Deliver entrega el KuDE. Una factura que ya no está ACCEPTED, por ejemplo
// anulada entre el veredicto y la entrega, no se reintenta.
func (w *StatusPollWorkflow) Deliver(ctx context.Context, invoiceID uuid.UUID) (DeliveryResult, error) {
	response, err := w.deliverer.Deliver(ctx, invoiceID)
	switch {
	case err == nil:
		return DeliveryResult{
			Delivered: true,
			Archived:  response.Archived,
			Emailed:   response.Emailed,
			Note:      response.Note,
		}, nil
	case errors.Is(err, services.ErrNotDeliverable), errors.Is(err, services.ErrInvoiceNotFound):
		w.logger.WithField("invoice_id", invoiceID).WithError(err).Warn("Skipping KuDE delivery")
		return DeliveryResult{Note: err.Error()}, nil
	default:
		return DeliveryResult{}, fmt.Errorf("error delivering invoice: %w", err)
	}
}
