package workflows

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/inngest/inngestgo"
	"github.com/sirupsen/logrus"
)

// EventInvoiceSubmitted se emite cuando una factura queda SUBMITTED
const EventInvoiceSubmitted = "invoice/submitted"

// InngestClient maneja la configuración, el envío de eventos y el registro de workflows
type InngestClient struct {
	client inngestgo.Client
	cfg    config.InngestConfig
	logger *logrus.Logger
}

// NewInngestClient crea una nueva instancia del cliente
func NewInngestClient(cfg config.InngestConfig, logger *logrus.Logger) (*InngestClient, error) {
	if cfg.EventKey == "" {
		return nil, fmt.Errorf("INNGEST_EVENT_KEY not configured")
	}
	if cfg.SigningKey == "" && !cfg.Dev {
		return nil, fmt.Errorf("INNGEST_SIGNING_KEY not configured")
	}

	opts := inngestgo.ClientOpts{
		AppID:    cfg.AppID,
		EventKey: &cfg.EventKey,
		Dev:      &cfg.Dev,
	}
	if cfg.SigningKey != "" {
		opts.SigningKey = &cfg.SigningKey
	}

	client, err := inngestgo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("error creating Inngest client: %w", err)
	}

	return &InngestClient{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// RegisterWorkflows registra las funciones del servicio en el cliente. deliverer puede ser nil.
func (c *InngestClient) RegisterWorkflows(poller StatusPoller, deliverer Deliverer) error {
	workflow := NewStatusPollWorkflow(poller, deliverer, c.cfg.PollInterval, c.cfg.MaxPolls, c.logger)

	_, err := inngestgo.CreateFunction(
		c.client,
		inngestgo.FunctionOpts{
			ID:   "poll-invoice-status",
			Name: "Poll SIFEN verdict for a submitted invoice",
		},
		inngestgo.EventTrigger(EventInvoiceSubmitted, nil),
		workflow.Run,
	)
	if err != nil {
		return fmt.Errorf("error registering status poll workflow: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"app_id":        c.cfg.AppID,
		"poll_interval": c.cfg.PollInterval.String(),
		"max_polls":     c.cfg.MaxPolls,
		"delivery":      deliverer != nil,
	}).Info("Inngest workflows registered")
	return nil
}

// InvoiceSubmitted publica el evento que inicia el seguimiento del veredicto
func (c *InngestClient) InvoiceSubmitted(ctx context.Context, invoiceID, companyID uuid.UUID) error {
	eventID, err := c.client.Send(ctx, inngestgo.Event{
		Name: EventInvoiceSubmitted,
		Data: map[string]any{
			"invoice_id": invoiceID.String(),
			"company_id": companyID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("error sending %s event: %w", EventInvoiceSubmitted, err)
	}

	c.logger.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"event_id":   eventID,
	}).Debug("Invoice submitted event sent")
	return nil
}

// Handler expone el endpoint que Inngest invoca para ejecutar las funciones
func (c *InngestClient) Handler() http.Handler {
	return c.client.Serve()
}
