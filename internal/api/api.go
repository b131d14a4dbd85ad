package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

// InvoiceOperations son las operaciones de factura expuestas por la API
type InvoiceOperations interface {
	CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, idempotencyKey string) (*models.InvoiceResponse, bool, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.ListInvoicesResponse, error)
	AvailableActions(ctx context.Context, id uuid.UUID) (*models.AvailableActionsResponse, error)
	AddLine(ctx context.Context, id uuid.UUID, req models.LineRequest) (*models.InvoiceResponse, error)
	UpdateLine(ctx context.Context, id uuid.UUID, lineNumber int, req models.LineRequest) (*models.InvoiceResponse, error)
	RemoveLine(ctx context.Context, id uuid.UUID, lineNumber int) (*models.InvoiceResponse, error)
	Submit(ctx context.Context, id uuid.UUID) (*models.InvoiceResponse, error)
	QueryStatus(ctx context.Context, id uuid.UUID) (*models.InvoiceStatusResponse, error)
	Void(ctx context.Context, id uuid.UUID, reason string) (*models.InvoiceResponse, error)
}

// CompanyOperations son las operaciones de empresas emisoras
type CompanyOperations interface {
	Create(ctx context.Context, req *models.CreateCompanyRequest) (*models.Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context, includeInactive bool) ([]models.Company, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateCompanyRequest) (*models.Company, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ClientOperations son las operaciones de clientes
type ClientOperations interface {
	Create(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateClientRequest) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReportOperations arma el dashboard de una empresa
type ReportOperations interface {
	Dashboard(ctx context.Context, companyID uuid.UUID, from, to *time.Time) (*models.DashboardResponse, error)
}

// DeliveryOperations genera y entrega el KuDE de las facturas
type DeliveryOperations interface {
	RenderKuDE(ctx context.Context, id uuid.UUID) (*models.InvoiceDocument, error)
	Deliver(ctx context.Context, id uuid.UUID) (*models.DeliveryResponse, error)
}

// APIKeyStore valida y emite las API keys de la consola
type APIKeyStore interface {
	Create(ctx context.Context, name string) (*models.APIKey, string, error)
	GetByHash(ctx context.Context, hash string) (*models.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// API maneja todos los endpoints de la API
type API struct {
	invoices  InvoiceOperations
	companies CompanyOperations
	clients   ClientOperations
	reports   ReportOperations
	delivery  DeliveryOperations
	apiKeys   APIKeyStore
	logger    *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(
	invoices InvoiceOperations,
	companies CompanyOperations,
	clients ClientOperations,
	reports ReportOperations,
	delivery DeliveryOperations,
	apiKeys APIKeyStore,
	logger *logrus.Logger,
) *API {
	return &API{
		invoices:  invoices,
		companies: companies,
		clients:   clients,
		reports:   reports,
		delivery:  delivery,
		apiKeys:   apiKeys,
		logger:    logger,
	}
}
