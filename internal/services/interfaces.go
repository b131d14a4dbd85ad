package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/sifen"
)

// InvoiceStore persiste el estado completo de las facturas
type InvoiceStore interface {
	Create(ctx context.Context, snap invoicing.Snapshot, idem *database.IdempotencyKey) (*database.InvoiceRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*database.InvoiceRecord, error)
	GetByIdempotencyKey(ctx context.Context, companyID uuid.UUID, key string) (*database.InvoiceRecord, error)
	List(ctx context.Context, filter models.InvoiceFilter) ([]database.InvoiceRecord, error)
	UpdateContent(ctx context.Context, snap invoicing.Snapshot, version int) (*database.InvoiceRecord, error)
	UpdateLifecycle(ctx context.Context, snap invoicing.Snapshot, version int) (*database.InvoiceRecord, error)
}

// CompanyStore persiste las empresas emisoras
type CompanyStore interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context, activeOnly bool) ([]models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ClientStore persiste los clientes de cada empresa
type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubmissionChannel envía un documento PENDING y retorna el identificador asignado
type SubmissionChannel interface {
	Submit(ctx context.Context, doc *sifen.Document) (string, error)
}

// StatusChannel consulta el veredicto de un documento enviado
type StatusChannel interface {
	Status(ctx context.Context, documentID string) (invoicing.Verdict, error)
}

// Locker serializa las operaciones sobre una misma factura
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// EventPublisher notifica que una factura fue enviada, para el seguimiento en segundo plano
type EventPublisher interface {
	InvoiceSubmitted(ctx context.Context, invoiceID, companyID uuid.UUID) error
}

// DocumentRenderer genera el KuDE de una factura
type DocumentRenderer interface {
	Render(company *models.Company, snap invoicing.Snapshot) (*models.InvoiceDocument, error)
}

// DocumentArchive guarda los documentos entregados
type DocumentArchive interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// InvoiceMailer envía el KuDE al receptor
type InvoiceMailer interface {
	SendInvoice(ctx context.Context, mail models.InvoiceMail) (string, error)
}
