package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/sifen"
	"github.com/sirupsen/logrus"
)

// InvoiceService coordina el agregado de factura con la persistencia y los canales SIFEN
type InvoiceService struct {
	invoices  InvoiceStore
	companies CompanyStore
	clients   ClientStore
	submitter SubmissionChannel
	status    StatusChannel
	locker    Locker
	events    EventPublisher
	logger    *logrus.Logger
}

// NewInvoiceService crea una nueva instancia del servicio. events puede ser nil.
func NewInvoiceService(
	invoices InvoiceStore,
	companies CompanyStore,
	clients ClientStore,
	submitter SubmissionChannel,
	status StatusChannel,
	locker Locker,
	events EventPublisher,
	logger *logrus.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		companies: companies,
		clients:   clients,
		submitter: submitter,
		status:    status,
		locker:    locker,
		events:    events,
		logger:    logger,
	}
}

// CreateInvoice crea una factura PENDING. Con idempotencyKey, repetir el mismo cuerpo
// retorna la factura existente y replayed en true.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, idempotencyKey string) (*models.InvoiceResponse, bool, error) {
	if _, err := s.activeCompany(ctx, req.CompanyID); err != nil {
		return nil, false, err
	}

	var idem *database.IdempotencyKey
	if idempotencyKey != "" {
		hash, err := requestHash(req)
		if err != nil {
			return nil, false, err
		}
		idem = &database.IdempotencyKey{Key: idempotencyKey, RequestHash: hash}

		existing, err := s.replay(ctx, req.CompanyID, idem)
		if err != nil || existing != nil {
			return existing, existing != nil, err
		}
	}

	header, err := req.Header()
	if err != nil {
		return nil, false, err
	}
	if header.Buyer, err = s.resolveBuyer(ctx, req.CompanyID, header.Buyer); err != nil {
		return nil, false, err
	}

	inv, err := invoicing.NewInvoice(uuid.New(), "", header, req.LineInputs())
	if err != nil {
		return nil, false, err
	}

	record, err := s.invoices.Create(ctx, inv.Snapshot(), idem)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			return nil, false, ErrCompanyInactive
		case errors.Is(err, database.ErrConflict) && idem != nil:
			// Otra petición con la misma clave ganó la carrera
			existing, replayErr := s.replay(ctx, req.CompanyID, idem)
			if replayErr != nil {
				return nil, false, replayErr
			}
			if existing != nil {
				return existing, true, nil
			}
		}
		return nil, false, fmt.Errorf("error creating invoice: %w", err)
	}

	response, err := s.toResponse(record)
	if err != nil {
		return nil, false, err
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": response.ID,
		"company_id": response.CompanyID,
		"number":     response.Number,
		"total":      response.Totals.Total.String(),
		"currency":   response.Currency,
	}).Info("Invoice created successfully")

	return response, false, nil
}

// replay retorna la factura creada con la misma clave, o nil si no existe
func (s *InvoiceService) replay(ctx context.Context, companyID uuid.UUID, idem *database.IdempotencyKey) (*models.InvoiceResponse, error) {
	record, err := s.invoices.GetByIdempotencyKey(ctx, companyID, idem.Key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error checking idempotency: %w", err)
	}
	if record.RequestHash != idem.RequestHash {
		return nil, ErrIdempotencyConflict
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":      record.Snapshot.ID,
		"idempotency_key": idem.Key,
	}).Info("Returning invoice for repeated idempotency key")
	return s.toResponse(record)
}

// resolveBuyer completa los datos vacíos del receptor desde el cliente referenciado
func (s *InvoiceService) resolveBuyer(ctx context.Context, companyID uuid.UUID, buyer invoicing.Buyer) (invoicing.Buyer, error) {
	if buyer.ClientID == nil {
		return buyer, nil
	}

	client, err := s.clients.GetByID(ctx, *buyer.ClientID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return buyer, ErrClientNotFound
		}
		return buyer, fmt.Errorf("error getting client: %w", err)
	}
	if client.CompanyID != companyID {
		return buyer, &invoicing.ValidationError{Field: "client_id", Issue: "belongs to another company"}
	}

	fill := func(dst *string, src *string) {
		if *dst == "" && src != nil {
			*dst = *src
		}
	}
	if buyer.Name == "" {
		buyer.Name = client.LegalName
	}
	fill(&buyer.RUC, client.RUC)
	fill(&buyer.Address, client.Address)
	fill(&buyer.Phone, client.Phone)
	fill(&buyer.Email, client.Email)
	return buyer, nil
}

// GetInvoice obtiene una factura con sus totales recalculados
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceResponse, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(record)
}

// ListInvoices lista las facturas de una empresa en un rango de fechas de emisión
func (s *InvoiceService) ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.ListInvoicesResponse, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, &invoicing.ValidationError{Field: "to", Issue: "must not be before from"}
	}
	if _, err := s.company(ctx, filter.CompanyID); err != nil {
		return nil, err
	}

	records, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}

	items := make([]models.InvoiceResponse, 0, len(records))
	for i := range records {
		response, err := s.toResponse(&records[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *response)
	}

	return &models.ListInvoicesResponse{Items: items, Total: len(items)}, nil
}

// AvailableActions retorna las acciones de ciclo de vida habilitadas para la factura
func (s *InvoiceService) AvailableActions(ctx context.Context, id uuid.UUID) (*models.AvailableActionsResponse, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	status := record.Snapshot.Status
	actions := make([]string, 0, 1)
	for _, action := range invoicing.AvailableActions(status) {
		actions = append(actions, string(action))
	}
	return &models.AvailableActionsResponse{ID: id, Status: string(status), AvailableActions: actions}, nil
}

// AddLine agrega una línea a una factura PENDING
func (s *InvoiceService) AddLine(ctx context.Context, id uuid.UUID, req models.LineRequest) (*models.InvoiceResponse, error) {
	return s.editContent(ctx, id, func(inv *invoicing.Invoice) error {
		_, err := inv.AddLine(req.ToInput())
		return err
	})
}

// UpdateLine reemplaza los valores de una línea existente
func (s *InvoiceService) UpdateLine(ctx context.Context, id uuid.UUID, lineNumber int, req models.LineRequest) (*models.InvoiceResponse, error) {
	return s.editContent(ctx, id, func(inv *invoicing.Invoice) error {
		_, err := inv.UpdateLine(lineNumber, req.ToInput())
		return err
	})
}

// RemoveLine quita una línea sin renumerar las restantes
func (s *InvoiceService) RemoveLine(ctx context.Context, id uuid.UUID, lineNumber int) (*models.InvoiceResponse, error) {
	return s.editContent(ctx, id, func(inv *invoicing.Invoice) error {
		return inv.RemoveLine(lineNumber)
	})
}

func (s *InvoiceService) editContent(ctx context.Context, id uuid.UUID, edit func(*invoicing.Invoice) error) (*models.InvoiceResponse, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	inv, record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := edit(inv); err != nil {
		return nil, err
	}

	updated, err := s.invoices.UpdateContent(ctx, inv.Snapshot(), record.Version)
	if err != nil {
		return nil, s.storeError(err)
	}
	return s.toResponse(updated)
}

// Submit envía la factura al canal SIFEN y la pasa a SUBMITTED con el identificador recibido.
// Si el canal falla la factura queda PENDING.
func (s *InvoiceService) Submit(ctx context.Context, id uuid.UUID) (*models.InvoiceResponse, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	inv, record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoicing.Allowed(invoicing.ActionSubmit, inv.Status()) {
		return nil, &invoicing.InvalidTransitionError{Action: invoicing.ActionSubmit, From: inv.Status()}
	}

	company, err := s.company(ctx, inv.Header().CompanyID)
	if err != nil {
		return nil, err
	}
	doc, err := sifen.NewDocument(inv, sifen.Issuer{
		RUC:             company.RUC,
		LegalName:       company.LegalName,
		Establishment:   company.Establishment,
		ExpeditionPoint: company.ExpeditionPoint,
	})
	if err != nil {
		return nil, err
	}

	documentID, err := s.submitter.Submit(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if err := inv.Submit(documentID); err != nil {
		return nil, err
	}

	// El gateway ya tiene el documento: el acuse se guarda aunque el llamador se desconecte.
	ctx = context.WithoutCancel(ctx)
	updated, err := s.invoices.UpdateLifecycle(ctx, inv.Snapshot(), record.Version)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"invoice_id":  id,
			"document_id": documentID,
		}).Error("Invoice was submitted but its new status could not be stored")
		return nil, s.storeError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":  id,
		"number":      inv.Number(),
		"document_id": documentID,
	}).Info("Invoice submitted to SIFEN")

	if s.events != nil {
		if err := s.events.InvoiceSubmitted(ctx, id, inv.Header().CompanyID); err != nil {
			s.logger.WithError(err).WithField("invoice_id", id).Warn("Failed to schedule status polling")
		}
	}

	return s.toResponse(updated)
}

// QueryStatus consulta el veredicto de una factura SUBMITTED y aplica el resultado.
// Un veredicto pendiente no modifica la factura.
func (s *InvoiceService) QueryStatus(ctx context.Context, id uuid.UUID) (*models.InvoiceStatusResponse, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	inv, record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !invoicing.Allowed(invoicing.ActionQueryStatus, inv.Status()) {
		return nil, &invoicing.InvalidTransitionError{Action: invoicing.ActionQueryStatus, From: inv.Status()}
	}

	verdict, err := s.status.Status(ctx, inv.DocumentID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusQueryFailed, err)
	}

	changed, err := inv.ApplyVerdict(verdict)
	if err != nil {
		return nil, err
	}
	if changed {
		if _, err := s.invoices.UpdateLifecycle(context.WithoutCancel(ctx), inv.Snapshot(), record.Version); err != nil {
			return nil, s.storeError(err)
		}
		s.logger.WithFields(logrus.Fields{
			"invoice_id":  id,
			"document_id": inv.DocumentID(),
			"status":      inv.Status(),
		}).Info("Invoice verdict applied")
	}

	return &models.InvoiceStatusResponse{
		ID:                id,
		Status:            string(inv.Status()),
		StatusLabel:       inv.Status().Label(),
		Changed:           changed,
		AuthorizationCode: inv.AuthorizationCode(),
		RejectionReason:   inv.RejectionReason(),
	}, nil
}

// Void anula una factura ACCEPTED con un motivo obligatorio
func (s *InvoiceService) Void(ctx context.Context, id uuid.UUID, reason string) (*models.InvoiceResponse, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	inv, record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := inv.Status()
	if err := inv.Void(reason); err != nil {
		return nil, err
	}

	updated, err := s.invoices.UpdateLifecycle(ctx, inv.Snapshot(), record.Version)
	if err != nil {
		return nil, s.storeError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id": id,
		"from":       previous,
		"reason":     reason,
	}).Info("Invoice voided")

	return s.toResponse(updated)
}

func (s *InvoiceService) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "invoice:"+id.String())
	if err != nil {
		if errors.Is(err, database.ErrLockTimeout) {
			return nil, ErrSubmissionInFlight
		}
		return nil, fmt.Errorf("error locking invoice: %w", err)
	}
	return unlock, nil
}

func (s *InvoiceService) getRecord(ctx context.Context, id uuid.UUID) (*database.InvoiceRecord, error) {
	record, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("error getting invoice: %w", err)
	}
	return record, nil
}

func (s *InvoiceService) load(ctx context.Context, id uuid.UUID) (*invoicing.Invoice, *database.InvoiceRecord, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	inv, err := invoicing.Restore(record.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("error restoring invoice %s: %w", id, err)
	}
	return inv, record, nil
}

func (s *InvoiceService) company(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company: %w", err)
	}
	return company, nil
}

func (s *InvoiceService) activeCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.company(ctx, id)
	if err != nil {
		return nil, err
	}
	if !company.IsActive {
		return nil, ErrCompanyInactive
	}
	return company, nil
}

func (s *InvoiceService) storeError(err error) error {
	if errors.Is(err, database.ErrStaleVersion) {
		return ErrConcurrentModification
	}
	return fmt.Errorf("error storing invoice: %w", err)
}

func (s *InvoiceService) toResponse(record *database.InvoiceRecord) (*models.InvoiceResponse, error) {
	inv, err := invoicing.Restore(record.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("error restoring invoice %s: %w", record.Snapshot.ID, err)
	}
	return models.NewInvoiceResponse(inv, record.CreatedAt, record.UpdatedAt)
}

// requestHash identifica el cuerpo de una creación para detectar claves reutilizadas
func requestHash(req *models.CreateInvoiceRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("error hashing request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
