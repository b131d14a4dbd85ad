package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/documents"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

// DeliveryService genera el KuDE y lo entrega: lo archiva en el storage y lo
// envía por email al receptor. Archivo y email son opcionales.
type DeliveryService struct {
	invoices  InvoiceStore
	companies CompanyStore
	renderer  DocumentRenderer
	archive   DocumentArchive
	mailer    InvoiceMailer
	logger    *logrus.Logger
}

// NewDeliveryService crea una nueva instancia del servicio. archive y mailer pueden ser nil.
func NewDeliveryService(
	invoices InvoiceStore,
	companies CompanyStore,
	renderer DocumentRenderer,
	archive DocumentArchive,
	mailer InvoiceMailer,
	logger *logrus.Logger,
) *DeliveryService {
	return &DeliveryService{
		invoices:  invoices,
		companies: companies,
		renderer:  renderer,
		archive:   archive,
		mailer:    mailer,
		logger:    logger,
	}
}

// RenderKuDE genera el PDF de la factura en cualquier estado. Si la factura
// ACCEPTED ya fue archivada se sirve la copia entregada.
func (s *DeliveryService) RenderKuDE(ctx context.Context, id uuid.UUID) (*models.InvoiceDocument, error) {
	record, company, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := record.Snapshot
	filename := documents.Filename(snap)
	if s.archive != nil && snap.Status == invoicing.StatusAccepted {
		data, err := s.archive.Get(ctx, archiveKey(snap, filename))
		if err == nil {
			return &models.InvoiceDocument{Filename: filename, ContentType: documents.ContentTypePDF, Content: data}, nil
		}
		s.logger.WithError(err).WithField("invoice_id", id).Debug("Archived KuDE not available, rendering")
	}
	doc, err := s.renderer.Render(company, snap)
	if err != nil {
		return nil, fmt.Errorf("error rendering invoice %s: %w", id, err)
	}
	return doc, nil
}

// Deliver archiva y envía el KuDE de una factura ACCEPTED
func (s *DeliveryService) Deliver(ctx context.Context, id uuid.UUID) (*models.DeliveryResponse, error) {
	record, company, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := record.Snapshot
	if snap.Status != invoicing.StatusAccepted {
		return nil, ErrNotDeliverable
	}

	doc, err := s.renderer.Render(company, snap)
	if err != nil {
		return nil, fmt.Errorf("error rendering invoice %s: %w", id, err)
	}

	logger := s.logger.WithFields(logrus.Fields{
		"invoice_id": id,
		"number":     snap.Number,
	})
	response := &models.DeliveryResponse{InvoiceID: id, Number: snap.Number}
	var notes []string

	if s.archive != nil {
		url, err := s.archive.Put(ctx, archiveKey(snap, doc.Filename), doc.ContentType, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("error archiving invoice %s: %w", id, err)
		}
		response.Archived = true
		response.ArchiveURL = url
	} else {
		notes = append(notes, "storage not configured")
	}

	switch {
	case s.mailer == nil:
		notes = append(notes, "email not configured")
	case snap.Header.Buyer.Email == "":
		notes = append(notes, "buyer has no email")
	default:
		totals, err := invoicing.ComputeTotals(snap.Header.Currency, snap.Lines)
		if err != nil {
			return nil, fmt.Errorf("error computing totals for invoice %s: %w", id, err)
		}
		emailID, err := s.mailer.SendInvoice(ctx, models.InvoiceMail{
			To:                snap.Header.Buyer.Email,
			BuyerName:         snap.Header.Buyer.Name,
			IssuerName:        company.LegalName,
			IssuerRUC:         company.RUC,
			Number:            snap.Number,
			IssueDate:         snap.Header.IssueDate.Format("02/01/2006"),
			Currency:          string(snap.Header.Currency),
			Total:             totals.Total,
			AuthorizationCode: snap.AuthorizationCode,
			Attachment:        *doc,
		})
		if err != nil {
			return nil, fmt.Errorf("error emailing invoice %s: %w", id, err)
		}
		response.Emailed = true
		response.EmailID = emailID
	}

	response.Note = strings.Join(notes, "; ")
	logger.WithFields(logrus.Fields{
		"archived": response.Archived,
		"emailed":  response.Emailed,
	}).Info("Invoice delivered")

	return response, nil
}

func archiveKey(snap invoicing.Snapshot, filename string) string {
	return fmt.Sprintf("invoices/%s/%s", snap.Header.CompanyID, filename)
}

func (s *DeliveryService) load(ctx context.Context, id uuid.UUID) (*database.InvoiceRecord, *models.Company, error) {
	record, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrInvoiceNotFound
		}
		return nil, nil, fmt.Errorf("error getting invoice: %w", err)
	}
	company, err := s.companies.GetByID(ctx, record.Snapshot.Header.CompanyID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrCompanyNotFound
		}
		return nil, nil, fmt.Errorf("error getting company: %w", err)
	}
	return record, company, nil
}
