package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/api"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/hypernova-labs/sifen-service/internal/services"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const (
	testAPIKey   = "sk_test_console"
	testAdminKey = "admin-bootstrap-key"
)

type APITestSuite struct {
	suite.Suite
	invoices  *MockInvoiceOperations
	companies *MockCompanyOperations
	clients   *MockClientOperations
	reports   *MockReportOperations
	delivery  *MockDeliveryOperations
	apiKeys   *MockAPIKeyStore
	router    *gin.Engine
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(api.RegisterValidators())
}

func (s *APITestSuite) SetupTest() {
	s.invoices = new(MockInvoiceOperations)
	s.companies = new(MockCompanyOperations)
	s.clients = new(MockClientOperations)
	s.reports = new(MockReportOperations)
	s.delivery = new(MockDeliveryOperations)
	s.apiKeys = new(MockAPIKeyStore)

	handler := api.NewAPI(s.invoices, s.companies, s.clients, s.reports, s.delivery, s.apiKeys, testLogger())
	s.router = gin.New()
	handler.RegisterRoutes(s.router.Group("/v1", handler.APIKeyAuth()))
	handler.RegisterAdminRoutes(s.router.Group("/v1", api.AdminAuth(testAdminKey)))

	keyID := uuid.New()
	s.apiKeys.On("GetByHash", mock.Anything, database.HashAPIKey(testAPIKey)).
		Return(&models.APIKey{ID: keyID, Name: "consola", IsActive: true}, nil).Maybe()
	s.apiKeys.On("UpdateLastUsed", mock.Anything, keyID).Return(nil).Maybe()
}

func (s *APITestSuite) TearDownTest() {
	s.invoices.AssertExpectations(s.T())
	s.companies.AssertExpectations(s.T())
	s.clients.AssertExpectations(s.T())
	s.reports.AssertExpectations(s.T())
	s.delivery.AssertExpectations(s.T())
}

func (s *APITestSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			payload, err := json.Marshal(body)
			s.Require().NoError(err)
			raw = string(payload)
		}
		reader = bytes.NewBufferString(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decodeError(w *httptest.ResponseRecorder) models.ErrorResponse {
	var resp models.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func validInvoiceBody(companyID uuid.UUID) map[string]any {
	return map[string]any{
		"company_id": companyID,
		"buyer":      map[string]any{"ruc": "80012345-6", "name": "Comercial Asunción S.A."},
		"issue_date": "2024-03-01",
		"currency":   "PYG",
		"lines": []map[string]any{
			{"description": "Servicio", "quantity": "2", "unit_price": "50000", "tax_rate": 10},
		},
	}
}

func invoiceResponse(status string) *models.InvoiceResponse {
	return &models.InvoiceResponse{
		ID:               uuid.New(),
		Number:           "001-001-0000001",
		Status:           status,
		Currency:         "PYG",
		Totals:           models.TotalsResponse{Total: decimal.NewFromInt(110000)},
		AvailableActions: []string{},
	}
}

// --- Autenticación ---

func (s *APITestSuite) TestAuth_MissingKey() {
	req := httptest.NewRequest(http.MethodGet, "/v1/companies", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", s.decodeError(w).Error.Code)
}

func (s *APITestSuite) TestAuth_UnknownKey() {
	s.apiKeys.On("GetByHash", mock.Anything, database.HashAPIKey("sk_unknown")).Return(nil, database.ErrNotFound).Once()

	w := s.do(http.MethodGet, "/v1/companies", nil, map[string]string{"X-API-Key": "sk_unknown"})

	s.Equal(http.StatusUnauthorized, w.Code)
}

// --- Facturas ---

func (s *APITestSuite) TestCreateInvoice_Created() {
	companyID := uuid.New()
	s.invoices.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req *models.CreateInvoiceRequest) bool {
		return req.CompanyID == companyID && len(req.Lines) == 1 && req.Lines[0].Quantity.Equal(decimal.NewFromInt(2))
	}), "").Return(invoiceResponse("PENDING"), false, nil).Once()

	w := s.do(http.MethodPost, "/v1/invoices", validInvoiceBody(companyID), nil)

	s.Equal(http.StatusCreated, w.Code)
	var resp models.InvoiceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("PENDING", resp.Status)
}

func (s *APITestSuite) TestCreateInvoice_IdempotentReplay() {
	companyID := uuid.New()
	s.invoices.On("CreateInvoice", mock.Anything, mock.Anything, "key-1").Return(invoiceResponse("PENDING"), true, nil).Once()

	w := s.do(http.MethodPost, "/v1/invoices", validInvoiceBody(companyID), map[string]string{"Idempotency-Key": "key-1"})

	s.Equal(http.StatusOK, w.Code)
	s.Equal("true", w.Header().Get("Idempotent-Replayed"))
}

func (s *APITestSuite) TestCreateInvoice_IdempotencyConflict() {
	s.invoices.On("CreateInvoice", mock.Anything, mock.Anything, "key-1").Return(nil, false, services.ErrIdempotencyConflict).Once()

	w := s.do(http.MethodPost, "/v1/invoices", validInvoiceBody(uuid.New()), map[string]string{"Idempotency-Key": "key-1"})

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("CONFLICT", s.decodeError(w).Error.Code)
}

func (s *APITestSuite) TestCreateInvoice_BindingErrors() {
	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{
			name: "tax rate outside 0, 5, 10",
			mutate: func(body map[string]any) {
				body["lines"] = []map[string]any{{"description": "X", "quantity": "1", "unit_price": "1", "tax_rate": 7}}
			},
			wantField: "lines[0].tax_rate",
		},
		{
			name:      "unsupported currency",
			mutate:    func(body map[string]any) { body["currency"] = "EUR" },
			wantField: "currency",
		},
		{
			name:      "malformed buyer RUC",
			mutate:    func(body map[string]any) { body["buyer"] = map[string]any{"ruc": "ABC", "name": "X"} },
			wantField: "buyer.ruc",
		},
		{
			name:      "no lines",
			mutate:    func(body map[string]any) { body["lines"] = []map[string]any{} },
			wantField: "lines",
		},
		{
			name:      "malformed issue date",
			mutate:    func(body map[string]any) { body["issue_date"] = "01/03/2024" },
			wantField: "issue_date",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			body := validInvoiceBody(uuid.New())
			tt.mutate(body)

			w := s.do(http.MethodPost, "/v1/invoices", body, nil)

			s.Equal(http.StatusBadRequest, w.Code)
			resp := s.decodeError(w)
			s.Equal("INVALID_REQUEST", resp.Error.Code)
			s.Require().NotEmpty(resp.Error.Details)
			s.Equal(tt.wantField, resp.Error.Details[0].Field)
		})
	}
	s.invoices.AssertNotCalled(s.T(), "CreateInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func (s *APITestSuite) TestCreateInvoice_MalformedJSON() {
	w := s.do(http.MethodPost, "/v1/invoices", `{"company_id":`, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("body", s.decodeError(w).Error.Details[0].Field)
}

func (s *APITestSuite) TestCreateInvoice_DomainValidation() {
	s.invoices.On("CreateInvoice", mock.Anything, mock.Anything, "").
		Return(nil, false, &invoicing.ValidationError{Field: "lines[0].quantity", Issue: "must be greater than zero"}).Once()

	w := s.do(http.MethodPost, "/v1/invoices", validInvoiceBody(uuid.New()), nil)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	resp := s.decodeError(w)
	s.Equal("lines[0].quantity", resp.Error.Details[0].Field)
}

func (s *APITestSuite) TestListInvoices() {
	companyID := uuid.New()
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	accepted := invoicing.StatusAccepted

	s.invoices.On("ListInvoices", mock.Anything, models.InvoiceFilter{CompanyID: companyID, From: &from, To: &to, Status: &accepted}).
		Return(&models.ListInvoicesResponse{Items: []models.InvoiceResponse{*invoiceResponse("ACCEPTED")}, Total: 1}, nil).Once()

	path := fmt.Sprintf("/v1/invoices?company_id=%s&from=2024-03-01&to=2024-03-31&status=accepted", companyID)
	w := s.do(http.MethodGet, path, nil, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp models.ListInvoicesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(1, resp.Total)
}

func (s *APITestSuite) TestListInvoices_InvalidQuery() {
	companyID := uuid.New()
	tests := map[string]struct {
		path      string
		wantField string
	}{
		"missing company":   {"/v1/invoices", "company_id"},
		"malformed from":    {fmt.Sprintf("/v1/invoices?company_id=%s&from=2024-13-01", companyID), "from"},
		"unknown status":    {fmt.Sprintf("/v1/invoices?company_id=%s&status=PAID", companyID), "status"},
		"malformed company": {"/v1/invoices?company_id=abc", "company_id"},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			w := s.do(http.MethodGet, tt.path, nil, nil)

			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal(tt.wantField, s.decodeError(w).Error.Details[0].Field)
		})
	}
}

func (s *APITestSuite) TestGetInvoice_InvalidID() {
	w := s.do(http.MethodGet, "/v1/invoices/not-a-uuid", nil, nil)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestGetInvoice_NotFound() {
	id := uuid.New()
	s.invoices.On("GetInvoice", mock.Anything, id).Return(nil, services.ErrInvoiceNotFound).Once()

	w := s.do(http.MethodGet, "/v1/invoices/"+id.String(), nil, nil)

	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", s.decodeError(w).Error.Code)
}

func (s *APITestSuite) TestGetAvailableActions() {
	id := uuid.New()
	s.invoices.On("AvailableActions", mock.Anything, id).
		Return(&models.AvailableActionsResponse{ID: id, Status: "ACCEPTED", AvailableActions: []string{"VOID"}}, nil).Once()

	w := s.do(http.MethodGet, "/v1/invoices/"+id.String()+"/actions", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"VOID"`)
}

func (s *APITestSuite) TestLineEndpoints() {
	id := uuid.New()
	line := map[string]any{"description": "Envío", "quantity": "1", "unit_price": "21000", "tax_rate": 5}

	s.invoices.On("AddLine", mock.Anything, id, mock.MatchedBy(func(req models.LineRequest) bool {
		return req.TaxRate == 5 && req.UnitPrice.Equal(decimal.NewFromInt(21000))
	})).Return(invoiceResponse("PENDING"), nil).Once()
	s.invoices.On("UpdateLine", mock.Anything, id, 2, mock.Anything).Return(invoiceResponse("PENDING"), nil).Once()
	s.invoices.On("RemoveLine", mock.Anything, id, 1).
		Return(nil, &invoicing.ValidationError{Field: "lines", Issue: "an invoice must keep at least one line"}).Once()

	w := s.do(http.MethodPost, "/v1/invoices/"+id.String()+"/lines", line, nil)
	s.Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPut, "/v1/invoices/"+id.String()+"/lines/2", line, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/v1/invoices/"+id.String()+"/lines/1", nil, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodDelete, "/v1/invoices/"+id.String()+"/lines/zero", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestSubmitInvoice_ErrorMapping() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"already submitted", &invoicing.InvalidTransitionError{Action: invoicing.ActionSubmit, From: invoicing.StatusSubmitted}, http.StatusConflict, "INVALID_TRANSITION"},
		{"gateway down", fmt.Errorf("%w: %v", services.ErrSubmissionFailed, errors.New("dial tcp: refused")), http.StatusBadGateway, "BAD_GATEWAY"},
		{"in flight", services.ErrSubmissionInFlight, http.StatusConflict, "CONFLICT"},
		{"stale write", services.ErrConcurrentModification, http.StatusConflict, "CONFLICT"},
		{"not found", services.ErrInvoiceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			id := uuid.New()
			s.invoices.On("Submit", mock.Anything, id).Return(nil, tt.err).Once()

			w := s.do(http.MethodPost, "/v1/invoices/"+id.String()+"/submit", nil, nil)

			s.Equal(tt.wantStatus, w.Code)
			s.Equal(tt.wantCode, s.decodeError(w).Error.Code)
		})
	}
}

func (s *APITestSuite) TestSubmitInvoice_OK() {
	id := uuid.New()
	s.invoices.On("Submit", mock.Anything, id).Return(invoiceResponse("SUBMITTED"), nil).Once()

	w := s.do(http.MethodPost, "/v1/invoices/"+id.String()+"/submit", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"SUBMITTED"`)
}

func (s *APITestSuite) TestQueryInvoiceStatus() {
	id := uuid.New()
	s.invoices.On("QueryStatus", mock.Anything, id).
		Return(&models.InvoiceStatusResponse{ID: id, Status: "ACCEPTED", Changed: true, AuthorizationCode: "AUTH-1"}, nil).Once()

	w := s.do(http.MethodGet, "/v1/invoices/"+id.String()+"/status", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp models.InvoiceStatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Changed)
	s.Equal("AUTH-1", resp.AuthorizationCode)
}

func (s *APITestSuite) TestVoidInvoice() {
	id := uuid.New()
	s.invoices.On("Void", mock.Anything, id, "Monto incorrecto").Return(invoiceResponse("VOIDED"), nil).Once()

	w := s.do(http.MethodPost, "/v1/invoices/"+id.String()+"/void", map[string]string{"reason": "Monto incorrecto"}, nil)

	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestGetInvoicePDF() {
	id := uuid.New()
	s.delivery.On("RenderKuDE", mock.Anything, id).Return(&models.InvoiceDocument{
		Filename:    "kude-001-001-0000001.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.3"),
	}, nil).Once()

	w := s.do(http.MethodGet, "/v1/invoices/"+id.String()+"/pdf", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("application/pdf", w.Header().Get("Content-Type"))
	s.Equal(`attachment; filename="kude-001-001-0000001.pdf"`, w.Header().Get("Content-Disposition"))
	s.Equal("%PDF-1.3", w.Body.String())
}

func (s *APITestSuite) TestGetInvoicePDF_NotFound() {
	id := uuid.New()
	s.delivery.On("RenderKuDE", mock.Anything, id).Return(nil, services.ErrInvoiceNotFound).Once()

	w := s.do(http.MethodGet, "/v1/invoices/"+id.String()+"/pdf?inline=true", nil, nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestDeliverInvoice() {
	id := uuid.New()
	s.delivery.On("Deliver", mock.Anything, id).
		Return(&models.DeliveryResponse{InvoiceID: id, Archived: true, Emailed: true, EmailID: "email-1"}, nil).Once()

	w := s.do(http.MethodPost, "/v1/invoices/"+id.String()+"/deliver", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp models.DeliveryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Emailed)
	s.Equal("email-1", resp.EmailID)
}

func (s *APITestSuite) TestDeliverInvoice_NotAccepted() {
	id := uuid.New()
	s.delivery.On("Deliver", mock.Anything, id).Return(nil, services.ErrNotDeliverable).Once()

	w := s.do(http.MethodPost, "/v1/invoices/"+id.String()+"/deliver", nil, nil)

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("CONFLICT", s.decodeError(w).Error.Code)
}

// --- Empresas y clientes ---

func (s *APITestSuite) TestCreateCompany() {
	s.companies.On("Create", mock.Anything, mock.MatchedBy(func(req *models.CreateCompanyRequest) bool {
		return req.RUC == "80000001-1"
	})).Return(&models.Company{ID: uuid.New(), RUC: "80000001-1", LegalName: "Emisor S.A."}, nil).Once()

	w := s.do(http.MethodPost, "/v1/companies", map[string]string{"ruc": "80000001-1", "legal_name": "Emisor S.A."}, nil)

	s.Equal(http.StatusCreated, w.Code)
}

func (s *APITestSuite) TestCreateCompany_DuplicateRUC() {
	s.companies.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateRUC).Once()

	w := s.do(http.MethodPost, "/v1/companies", map[string]string{"ruc": "80000001-1", "legal_name": "Emisor S.A."}, nil)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *APITestSuite) TestCreateCompany_InvalidRUC() {
	w := s.do(http.MethodPost, "/v1/companies", map[string]string{"ruc": "80000001", "legal_name": "Emisor S.A."}, nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("ruc", s.decodeError(w).Error.Details[0].Field)
}

func (s *APITestSuite) TestListCompanies() {
	s.companies.On("List", mock.Anything, true).Return([]models.Company{{RUC: "80000001-1"}}, nil).Once()

	w := s.do(http.MethodGet, "/v1/companies?include_inactive=true", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"total":1`)
}

func (s *APITestSuite) TestDeactivateCompany() {
	id := uuid.New()
	s.companies.On("Deactivate", mock.Anything, id).Return(nil).Once()

	w := s.do(http.MethodDelete, "/v1/companies/"+id.String(), nil, nil)

	s.Equal(http.StatusNoContent, w.Code)
}

func (s *APITestSuite) TestGetDashboard() {
	id := uuid.New()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.reports.On("Dashboard", mock.Anything, id, &from, (*time.Time)(nil)).
		Return(&models.DashboardResponse{CompanyID: id, InvoiceCount: 3}, nil).Once()

	w := s.do(http.MethodGet, "/v1/companies/"+id.String()+"/dashboard?from=2024-01-01", nil, nil)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"invoice_count":3`)
}

func (s *APITestSuite) TestClients() {
	companyID := uuid.New()
	clientID := uuid.New()
	s.clients.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrCompanyInactive).Once()
	s.clients.On("ListByCompany", mock.Anything, companyID).Return([]models.Client{{ID: clientID}}, nil).Once()
	s.clients.On("Delete", mock.Anything, clientID).Return(services.ErrClientNotFound).Once()

	w := s.do(http.MethodPost, "/v1/clients", map[string]any{"company_id": companyID, "legal_name": "Cliente"}, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/v1/clients?company_id="+companyID.String(), nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/v1/clients/"+clientID.String(), nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

// --- API keys ---

func (s *APITestSuite) TestCreateAPIKey() {
	keyID := uuid.New()
	s.apiKeys.On("Create", mock.Anything, "backoffice").
		Return(&models.APIKey{ID: keyID, Name: "backoffice", IsActive: true}, "sk_plain", nil).Once()

	w := s.do(http.MethodPost, "/v1/apikeys", map[string]string{"name": "backoffice"}, map[string]string{"X-API-Key": testAdminKey})

	s.Equal(http.StatusCreated, w.Code)
	var resp models.CreateAPIKeyResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("sk_plain", resp.APIKey)
	s.Equal(keyID, resp.ID)
}

func (s *APITestSuite) TestCreateAPIKey_RequiresAdminKey() {
	w := s.do(http.MethodPost, "/v1/apikeys", map[string]string{"name": "backoffice"}, nil)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.apiKeys.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *APITestSuite) TestRevokeAPIKey() {
	revoked := uuid.New()
	missing := uuid.New()
	admin := map[string]string{"X-API-Key": testAdminKey}
	s.apiKeys.On("Deactivate", mock.Anything, revoked).Return(nil).Once()
	s.apiKeys.On("Deactivate", mock.Anything, missing).Return(database.ErrNotFound).Once()

	w := s.do(http.MethodDelete, "/v1/apikeys/"+revoked.String(), nil, admin)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodDelete, "/v1/apikeys/"+missing.String(), nil, admin)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", s.decodeError(w).Error.Code)
}

func TestAdminAuth_DisabledWithoutKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/v1/apikeys", api.AdminAuth(""), func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/v1/apikeys", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Rate limit ---

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: time.Minute, Limit: 2})

	router := gin.New()
	router.GET("/ping", api.RateLimit(instance, testLogger()), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
	assert.Positive(t, resp.Error.RetryAfter)
}

func TestIPRateLimit_CountsRejectedKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: time.Minute, Limit: 2})
	apiKeys := new(MockAPIKeyStore)
	apiKeys.On("GetByHash", mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)
	handler := api.NewAPI(new(MockInvoiceOperations), new(MockCompanyOperations), new(MockClientOperations),
		new(MockReportOperations), new(MockDeliveryOperations), apiKeys, testLogger())

	router := gin.New()
	v1 := router.Group("/v1", api.IPRateLimit(instance, testLogger()), handler.APIKeyAuth())
	v1.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("X-API-Key", fmt.Sprintf("sk_guess_%d", i))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
	apiKeys.AssertNumberOfCalls(t, "GetByHash", 2)
}
