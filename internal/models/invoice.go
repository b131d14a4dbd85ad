package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/shopspring/decimal"
)

// DateLayout es el formato de fecha de emisión aceptado por la API
const DateLayout = "2006-01-02"

// CreateInvoiceRequest representa el request para crear una factura
type CreateInvoiceRequest struct {
	CompanyID    uuid.UUID     `json:"company_id" binding:"required"`
	ClientID     *uuid.UUID    `json:"client_id,omitempty"`
	Buyer        BuyerRequest  `json:"buyer"`
	IssueDate    string        `json:"issue_date" binding:"required,datetime=2006-01-02"`
	Currency     string        `json:"currency" binding:"required,currency"`
	PaymentTerms string        `json:"payment_terms,omitempty" binding:"omitempty,oneof=CASH CREDIT"`
	CreditDays   int           `json:"credit_days,omitempty" binding:"min=0,max=365"`
	Notes        string        `json:"notes,omitempty" binding:"max=1000"`
	Lines        []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// BuyerRequest representa los datos del receptor. Los campos vacíos se completan desde el cliente.
type BuyerRequest struct {
	RUC     string `json:"ruc,omitempty" binding:"omitempty,ruc"`
	Name    string `json:"name,omitempty" binding:"max=255"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" binding:"omitempty,email"`
}

// LineRequest representa una línea de la factura
type LineRequest struct {
	ProductCode string          `json:"product_code,omitempty" binding:"max=50"`
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty" binding:"omitempty,oneof=UNI KG LT MT"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     int             `json:"tax_rate" binding:"tax_rate"`
}

// ToInput convierte el request en la entrada del agregado
func (r LineRequest) ToInput() invoicing.LineInput {
	return invoicing.LineInput{
		ProductCode: r.ProductCode,
		Description: r.Description,
		Quantity:    r.Quantity,
		Unit:        invoicing.UnitOfMeasure(strings.ToUpper(r.Unit)),
		UnitPrice:   r.UnitPrice,
		Discount:    r.Discount,
		TaxRate:     invoicing.TaxRate(r.TaxRate),
	}
}

// LineInputs convierte todas las líneas del request
func (r *CreateInvoiceRequest) LineInputs() []invoicing.LineInput {
	inputs := make([]invoicing.LineInput, 0, len(r.Lines))
	for _, line := range r.Lines {
		inputs = append(inputs, line.ToInput())
	}
	return inputs
}

// Header construye la cabecera del agregado a partir del request
func (r *CreateInvoiceRequest) Header() (invoicing.Header, error) {
	issueDate, err := time.Parse(DateLayout, r.IssueDate)
	if err != nil {
		return invoicing.Header{}, &invoicing.ValidationError{Field: "issue_date", Issue: "must use the YYYY-MM-DD format"}
	}
	return invoicing.Header{
		CompanyID: r.CompanyID,
		Buyer: invoicing.Buyer{
			ClientID: r.ClientID,
			RUC:      r.Buyer.RUC,
			Name:     r.Buyer.Name,
			Address:  r.Buyer.Address,
			Phone:    r.Buyer.Phone,
			Email:    r.Buyer.Email,
		},
		IssueDate:    issueDate,
		Currency:     invoicing.Currency(strings.ToUpper(r.Currency)),
		PaymentTerms: invoicing.PaymentTerms(strings.ToUpper(r.PaymentTerms)),
		CreditDays:   r.CreditDays,
		Notes:        r.Notes,
	}, nil
}

// VoidInvoiceRequest representa el request para anular una factura
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// InvoiceFilter representa los filtros de listado
type InvoiceFilter struct {
	CompanyID uuid.UUID
	From      *time.Time
	To        *time.Time
	Status    *invoicing.Status
}

// InvoiceResponse representa una factura con sus totales calculados
type InvoiceResponse struct {
	ID                uuid.UUID      `json:"id"`
	Number            string         `json:"number"`
	CompanyID         uuid.UUID      `json:"company_id"`
	Status            string         `json:"status"`
	StatusLabel       string         `json:"status_label"`
	Buyer             BuyerResponse  `json:"buyer"`
	IssueDate         string         `json:"issue_date"`
	Currency          string         `json:"currency"`
	PaymentTerms      string         `json:"payment_terms"`
	CreditDays        int            `json:"credit_days,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	Lines             []LineResponse `json:"lines"`
	Totals            TotalsResponse `json:"totals"`
	DocumentID        string         `json:"document_id,omitempty"`
	AuthorizationCode string         `json:"authorization_code,omitempty"`
	RejectionReason   string         `json:"rejection_reason,omitempty"`
	VoidReason        string         `json:"void_reason,omitempty"`
	AvailableActions  []string       `json:"available_actions"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// BuyerResponse representa el receptor en la respuesta
type BuyerResponse struct {
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	RUC      string     `json:"ruc,omitempty"`
	Name     string     `json:"name"`
	Address  string     `json:"address,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Email    string     `json:"email,omitempty"`
}

// LineResponse representa una línea con sus importes exactos
type LineResponse struct {
	LineNumber  int             `json:"line_number"`
	ProductCode string          `json:"product_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     int             `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
}

// TotalsResponse representa los totales redondeados a la moneda
type TotalsResponse struct {
	Subtotal  decimal.Decimal    `json:"subtotal"`
	TaxAmount decimal.Decimal    `json:"tax_amount"`
	Total     decimal.Decimal    `json:"total"`
	Breakdown []RateTotalsResult `json:"breakdown"`
}

// RateTotalsResult representa la liquidación por tasa de IVA
type RateTotalsResult struct {
	TaxRate int             `json:"tax_rate"`
	Taxable decimal.Decimal `json:"taxable"`
	Tax     decimal.Decimal `json:"tax"`
}

// NewInvoiceResponse construye la respuesta recalculando los totales
func NewInvoiceResponse(inv *invoicing.Invoice, createdAt, updatedAt time.Time) (*InvoiceResponse, error) {
	totals, err := inv.Totals()
	if err != nil {
		return nil, err
	}
	figures, err := invoicing.ComputeLines(inv.Lines())
	if err != nil {
		return nil, err
	}

	header := inv.Header()
	lines := make([]LineResponse, 0, len(figures))
	for i, line := range inv.Lines() {
		lines = append(lines, LineResponse{
			LineNumber:  line.LineNumber,
			ProductCode: line.ProductCode,
			Description: line.Description,
			Quantity:    line.Quantity,
			Unit:        string(line.Unit),
			UnitPrice:   line.UnitPrice,
			Discount:    line.Discount,
			TaxRate:     int(line.TaxRate),
			Subtotal:    figures[i].Subtotal,
			Tax:         figures[i].Tax,
		})
	}

	breakdown := make([]RateTotalsResult, 0, len(totals.Breakdown))
	for _, rt := range totals.Breakdown {
		breakdown = append(breakdown, RateTotalsResult{TaxRate: int(rt.Rate), Taxable: rt.Taxable, Tax: rt.Tax})
	}

	actions := make([]string, 0, 1)
	for _, action := range inv.AvailableActions() {
		actions = append(actions, string(action))
	}

	return &InvoiceResponse{
		ID:          inv.ID(),
		Number:      inv.Number(),
		CompanyID:   header.CompanyID,
		Status:      string(inv.Status()),
		StatusLabel: inv.Status().Label(),
		Buyer: BuyerResponse{
			ClientID: header.Buyer.ClientID,
			RUC:      header.Buyer.RUC,
			Name:     header.Buyer.Name,
			Address:  header.Buyer.Address,
			Phone:    header.Buyer.Phone,
			Email:    header.Buyer.Email,
		},
		IssueDate:    header.IssueDate.Format(DateLayout),
		Currency:     string(header.Currency),
		PaymentTerms: string(header.PaymentTerms),
		CreditDays:   header.CreditDays,
		Notes:        header.Notes,
		Lines:        lines,
		Totals: TotalsResponse{
			Subtotal:  totals.Subtotal,
			TaxAmount: totals.TaxAmount,
			Total:     totals.Total,
			Breakdown: breakdown,
		},
		DocumentID:        inv.DocumentID(),
		AuthorizationCode: inv.AuthorizationCode(),
		RejectionReason:   inv.RejectionReason(),
		VoidReason:        inv.VoidReason(),
		AvailableActions:  actions,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

// ListInvoicesResponse representa el listado de facturas
type ListInvoicesResponse struct {
	Items []InvoiceResponse `json:"items"`
	Total int               `json:"total"`
}

// InvoiceStatusResponse representa el resultado de consultar el estado ante la autoridad
type InvoiceStatusResponse struct {
	ID                uuid.UUID `json:"id"`
	Status            string    `json:"status"`
	StatusLabel       string    `json:"status_label"`
	Changed           bool      `json:"changed"`
	AuthorizationCode string    `json:"authorization_code,omitempty"`
	RejectionReason   string    `json:"rejection_reason,omitempty"`
}

// AvailableActionsResponse representa las acciones habilitadas para una factura
type AvailableActionsResponse struct {
	ID               uuid.UUID `json:"id"`
	Status           string    `json:"status"`
	AvailableActions []string  `json:"available_actions"`
}
