package services_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/services"
	"github.com/hypernova-labs/sifen-service/internal/sifen"
	"github.com/stretchr/testify/mock"
)

// --- Mock InvoiceStore ---
type MockInvoiceStore struct {
	mock.Mock
}

var _ services.InvoiceStore = (*MockInvoiceStore)(nil)

func (m *MockInvoiceStore) Create(ctx context.Context, snap invoicing.Snapshot, idem *database.IdempotencyKey) (*database.InvoiceRecord, error) {
	args := m.Called(ctx, snap, idem)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceStore) GetByID(ctx context.Context, id uuid.UUID) (*database.InvoiceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceStore) GetByIdempotencyKey(ctx context.Context, companyID uuid.UUID, key string) (*database.InvoiceRecord, error) {
	args := m.Called(ctx, companyID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceStore) List(ctx context.Context, filter models.InvoiceFilter) ([]database.InvoiceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceStore) UpdateContent(ctx context.Context, snap invoicing.Snapshot, version int) (*database.InvoiceRecord, error) {
	args := m.Called(ctx, snap, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.InvoiceRecord), args.Error(1)
}

func (m *MockInvoiceStore) UpdateLifecycle(ctx context.Context, snap invoicing.Snapshot, version int) (*database.InvoiceRecord, error) {
	args := m.Called(ctx, snap, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.InvoiceRecord), args.Error(1)
}

// --- Mock CompanyStore ---
type MockCompanyStore struct {
	mock.Mock
}

var _ services.CompanyStore = (*MockCompanyStore)(nil)

func (m *MockCompanyStore) Create(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyStore) List(ctx context.Context, activeOnly bool) ([]models.Company, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Company), args.Error(1)
}

func (m *MockCompanyStore) Update(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock ClientStore ---
type MockClientStore struct {
	mock.Mock
}

var _ services.ClientStore = (*MockClientStore)(nil)

func (m *MockClientStore) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientStore) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock channels ---
type MockSubmitter struct {
	mock.Mock
}

var _ services.SubmissionChannel = (*MockSubmitter)(nil)

func (m *MockSubmitter) Submit(ctx context.Context, doc *sifen.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

type MockStatusChannel struct {
	mock.Mock
}

var _ services.StatusChannel = (*MockStatusChannel)(nil)

func (m *MockStatusChannel) Status(ctx context.Context, documentID string) (invoicing.Verdict, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(invoicing.Verdict), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

var _ services.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) InvoiceSubmitted(ctx context.Context, invoiceID, companyID uuid.UUID) error {
	args := m.Called(ctx, invoiceID, companyID)
	return args.Error(0)
}

// --- Mock Locker ---
type MockLocker struct {
	mock.Mock
}

var _ services.Locker = (*MockLocker)(nil)

func (m *MockLocker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// --- Mock delivery collaborators ---
type MockRenderer struct {
	mock.Mock
}

var _ services.DocumentRenderer = (*MockRenderer)(nil)

func (m *MockRenderer) Render(company *models.Company, snap invoicing.Snapshot) (*models.InvoiceDocument, error) {
	args := m.Called(company, snap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceDocument), args.Error(1)
}

type MockArchive struct {
	mock.Mock
}

var _ services.DocumentArchive = (*MockArchive)(nil)

func (m *MockArchive) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockArchive) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

var _ services.InvoiceMailer = (*MockMailer)(nil)

func (m *MockMailer) SendInvoice(ctx context.Context, mail models.InvoiceMail) (string, error) {
	args := m.Called(ctx, mail)
	return args.String(0), args.Error(1)
}
