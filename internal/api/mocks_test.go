package api_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/api"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/stretchr/testify/mock"
)

// --- Mock InvoiceOperations ---
type MockInvoiceOperations struct {
	mock.Mock
}

var _ api.InvoiceOperations = (*MockInvoiceOperations)(nil)

func (m *MockInvoiceOperations) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest, idempotencyKey string) (*models.InvoiceResponse, bool, error) {
	args := m.Called(ctx, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Bool(1), args.Error(2)
}

func (m *MockInvoiceOperations) GetInvoice(ctx context.Context, id uuid.UUID) (*models.InvoiceResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceOperations) ListInvoices(ctx context.Context, filter models.InvoiceFilter) (*models.ListInvoicesResponse, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListInvoicesResponse), args.Error(1)
}

func (m *MockInvoiceOperations) AvailableActions(ctx context.Context, id uuid.UUID) (*models.AvailableActionsResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AvailableActionsResponse), args.Error(1)
}

func (m *MockInvoiceOperations) AddLine(ctx context.Context, id uuid.UUID, req models.LineRequest) (*models.InvoiceResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceOperations) UpdateLine(ctx context.Context, id uuid.UUID, lineNumber int, req models.LineRequest) (*models.InvoiceResponse, error) {
	args := m.Called(ctx, id, lineNumber, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceOperations) RemoveLine(ctx context.Context, id uuid.UUID, lineNumber int) (*models.InvoiceResponse, error) {
	args := m.Called(ctx, id, lineNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceOperations) Submit(ctx context.Context, id uuid.UUID) (*models.InvoiceResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceOperations) QueryStatus(ctx context.Context, id uuid.UUID) (*models.InvoiceStatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceStatusResponse), args.Error(1)
}

func (m *MockInvoiceOperations) Void(ctx context.Context, id uuid.UUID, reason string) (*models.InvoiceResponse, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResponse), args.Error(1)
}

// --- Mock CompanyOperations ---
type MockCompanyOperations struct {
	mock.Mock
}

var _ api.CompanyOperations = (*MockCompanyOperations)(nil)

func (m *MockCompanyOperations) Create(ctx context.Context, req *models.CreateCompanyRequest) (*models.Company, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyOperations) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyOperations) List(ctx context.Context, includeInactive bool) ([]models.Company, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Company), args.Error(1)
}

func (m *MockCompanyOperations) Update(ctx context.Context, id uuid.UUID, req *models.UpdateCompanyRequest) (*models.Company, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyOperations) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock ClientOperations ---
type MockClientOperations struct {
	mock.Mock
}

var _ api.ClientOperations = (*MockClientOperations)(nil)

func (m *MockClientOperations) Create(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientOperations) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientOperations) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientOperations) Update(ctx context.Context, id uuid.UUID, req *models.UpdateClientRequest) (*models.Client, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientOperations) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock ReportOperations ---
type MockReportOperations struct {
	mock.Mock
}

var _ api.ReportOperations = (*MockReportOperations)(nil)

func (m *MockReportOperations) Dashboard(ctx context.Context, companyID uuid.UUID, from, to *time.Time) (*models.DashboardResponse, error) {
	args := m.Called(ctx, companyID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardResponse), args.Error(1)
}

// --- Mock DeliveryOperations ---
type MockDeliveryOperations struct {
	mock.Mock
}

var _ api.DeliveryOperations = (*MockDeliveryOperations)(nil)

func (m *MockDeliveryOperations) RenderKuDE(ctx context.Context, id uuid.UUID) (*models.InvoiceDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceDocument), args.Error(1)
}

func (m *MockDeliveryOperations) Deliver(ctx context.Context, id uuid.UUID) (*models.DeliveryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeliveryResponse), args.Error(1)
}

// --- Mock APIKeyStore ---
type MockAPIKeyStore struct {
	mock.Mock
}

var _ api.APIKeyStore = (*MockAPIKeyStore)(nil)

func (m *MockAPIKeyStore) Create(ctx context.Context, name string) (*models.APIKey, string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.APIKey), args.String(1), args.Error(2)
}

func (m *MockAPIKeyStore) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyStore) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPIKeyStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
