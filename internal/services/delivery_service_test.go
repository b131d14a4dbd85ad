package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func deliveryRecord(t *testing.T, companyID uuid.UUID, buyerEmail string, accepted bool) *database.InvoiceRecord {
	t.Helper()
	inv, err := invoicing.NewInvoice(uuid.New(), "001-001-0000042", invoicing.Header{
		CompanyID: companyID,
		Buyer:     invoicing.Buyer{Name: "Cliente", Email: buyerEmail},
		IssueDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Currency:  invoicing.CurrencyPYG,
	}, []invoicing.LineInput{
		{Description: "Item", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(10000), TaxRate: invoicing.TaxRate10},
	})
	require.NoError(t, err)
	if accepted {
		require.NoError(t, inv.Submit("DOC"))
		_, err = inv.ApplyVerdict(invoicing.AcceptedVerdict{AuthorizationCode: "AUTH"})
		require.NoError(t, err)
	}
	return &database.InvoiceRecord{Snapshot: inv.Snapshot(), Version: 3}
}

type deliveryFixture struct {
	invoices  *MockInvoiceStore
	companies *MockCompanyStore
	renderer  *MockRenderer
	archive   *MockArchive
	mailer    *MockMailer
	company   *models.Company
	doc       *models.InvoiceDocument
}

func newDeliveryFixture() *deliveryFixture {
	return &deliveryFixture{
		invoices:  new(MockInvoiceStore),
		companies: new(MockCompanyStore),
		renderer:  new(MockRenderer),
		archive:   new(MockArchive),
		mailer:    new(MockMailer),
		company:   &models.Company{ID: uuid.New(), RUC: "80000001-1", LegalName: "Emisor S.A.", IsActive: true},
		doc:       &models.InvoiceDocument{Filename: "kude-001-001-0000042.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
	}
}

func (f *deliveryFixture) service(withArchive, withMailer bool) *services.DeliveryService {
	var archive services.DocumentArchive
	var mailer services.InvoiceMailer
	if withArchive {
		archive = f.archive
	}
	if withMailer {
		mailer = f.mailer
	}
	return services.NewDeliveryService(f.invoices, f.companies, f.renderer, archive, mailer, quietLogger())
}

func (f *deliveryFixture) assertExpectations(t *testing.T) {
	f.invoices.AssertExpectations(t)
	f.companies.AssertExpectations(t)
	f.renderer.AssertExpectations(t)
	f.archive.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestDeliveryService_Deliver(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	record := deliveryRecord(t, f.company.ID, "compras@cliente.com.py", true)
	id := record.Snapshot.ID

	f.invoices.On("GetByID", ctx, id).Return(record, nil).Once()
	f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
	f.renderer.On("Render", f.company, record.Snapshot).Return(f.doc, nil).Once()
	key := "invoices/" + f.company.ID.String() + "/kude-001-001-0000042.pdf"
	f.archive.On("Put", ctx, key, "application/pdf", f.doc.Content).Return("https://storage/invoice-files/"+key, nil).Once()
	f.mailer.On("SendInvoice", ctx, mock.MatchedBy(func(m models.InvoiceMail) bool {
		return m.To == "compras@cliente.com.py" &&
			m.Number == "001-001-0000042" &&
			m.IssueDate == "10/05/2024" &&
			m.Total.Equal(decimal.NewFromInt(33000)) &&
			m.AuthorizationCode == "AUTH" &&
			m.Attachment.Filename == f.doc.Filename
	})).Return("email-1", nil).Once()

	response, err := f.service(true, true).Deliver(ctx, id)

	require.NoError(t, err)
	assert.True(t, response.Archived)
	assert.True(t, response.Emailed)
	assert.Equal(t, "email-1", response.EmailID)
	assert.Contains(t, response.ArchiveURL, key)
	assert.Empty(t, response.Note)
	f.assertExpectations(t)
}

func TestDeliveryService_DeliverWithoutCollaborators(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	record := deliveryRecord(t, f.company.ID, "compras@cliente.com.py", true)

	f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
	f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
	f.renderer.On("Render", f.company, record.Snapshot).Return(f.doc, nil).Once()

	response, err := f.service(false, false).Deliver(ctx, record.Snapshot.ID)

	require.NoError(t, err)
	assert.False(t, response.Archived)
	assert.False(t, response.Emailed)
	assert.Equal(t, "storage not configured; email not configured", response.Note)
	f.assertExpectations(t)
}

func TestDeliveryService_DeliverBuyerWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	record := deliveryRecord(t, f.company.ID, "", true)

	f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
	f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
	f.renderer.On("Render", f.company, record.Snapshot).Return(f.doc, nil).Once()
	f.archive.On("Put", ctx, mock.Anything, "application/pdf", f.doc.Content).Return("url", nil).Once()

	response, err := f.service(true, true).Deliver(ctx, record.Snapshot.ID)

	require.NoError(t, err)
	assert.True(t, response.Archived)
	assert.False(t, response.Emailed)
	assert.Equal(t, "buyer has no email", response.Note)
	f.assertExpectations(t)
}

func TestDeliveryService_DeliverRequiresAccepted(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	record := deliveryRecord(t, f.company.ID, "compras@cliente.com.py", false)

	f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
	f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()

	_, err := f.service(true, true).Deliver(ctx, record.Snapshot.ID)

	assert.ErrorIs(t, err, services.ErrNotDeliverable)
	f.assertExpectations(t)
}

func TestDeliveryService_DeliverArchiveFailure(t *testing.T) {
	ctx := context.Background()
	f := newDeliveryFixture()
	record := deliveryRecord(t, f.company.ID, "compras@cliente.com.py", true)

	f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
	f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
	f.renderer.On("Render", f.company, record.Snapshot).Return(f.doc, nil).Once()
	f.archive.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket unavailable")).Once()

	_, err := f.service(true, true).Deliver(ctx, record.Snapshot.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	f.mailer.AssertNotCalled(t, "SendInvoice", mock.Anything, mock.Anything)
}

func TestDeliveryService_RenderKuDE(t *testing.T) {
	ctx := context.Background()

	t.Run("renders pending invoices", func(t *testing.T) {
		f := newDeliveryFixture()
		record := deliveryRecord(t, f.company.ID, "", false)
		f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
		f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
		f.renderer.On("Render", f.company, record.Snapshot).Return(f.doc, nil).Once()

		doc, err := f.service(false, false).RenderKuDE(ctx, record.Snapshot.ID)

		require.NoError(t, err)
		assert.Equal(t, f.doc, doc)
		f.assertExpectations(t)
	})

	t.Run("serves archived copy of accepted invoices", func(t *testing.T) {
		f := newDeliveryFixture()
		record := deliveryRecord(t, f.company.ID, "", true)
		key := "invoices/" + f.company.ID.String() + "/kude-001-001-0000042.pdf"
		f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
		f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
		f.archive.On("Get", ctx, key).Return([]byte("%PDF-archived"), nil).Once()

		doc, err := f.service(true, false).RenderKuDE(ctx, record.Snapshot.ID)

		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-archived"), doc.Content)
		assert.Equal(t, "kude-001-001-0000042.pdf", doc.Filename)
		f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("renders when archive has no copy", func(t *testing.T) {
		f := newDeliveryFixture()
		record := deliveryRecord(t, f.company.ID, "", true)
		f.invoices.On("GetByID", ctx, record.Snapshot.ID).Return(record, nil).Once()
		f.companies.On("GetByID", ctx, f.company.ID).Return(f.company, nil).Once()
		f.archive.On("Get", ctx, mock.Anything).Return(nil, errors.New("object not found")).Once()
		f.renderer.On("Render", f.company, record.Snapshot).Return(f.doc, nil).Once()

		doc, err := f.service(true, false).RenderKuDE(ctx, record.Snapshot.ID)

		require.NoError(t, err)
		assert.Equal(t, f.doc, doc)
		f.assertExpectations(t)
	})

	t.Run("invoice not found", func(t *testing.T) {
		f := newDeliveryFixture()
		id := uuid.New()
		f.invoices.On("GetByID", ctx, id).Return(nil, database.ErrNotFound).Once()

		_, err := f.service(false, false).RenderKuDE(ctx, id)

		assert.ErrorIs(t, err, services.ErrInvoiceNotFound)
	})
}
