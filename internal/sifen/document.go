package sifen

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/shopspring/decimal"
)

// Issuer son los datos del emisor que viajan en cada documento
type Issuer struct {
	RUC             string
	LegalName       string
	Establishment   string
	ExpeditionPoint string
}

// Document es el contrato de envío al gateway
type Document struct {
	InvoiceID       uuid.UUID      `json:"invoice_id"`
	Number          string         `json:"number"`
	IssuerRUC       string         `json:"issuer_ruc"`
	IssuerName      string         `json:"issuer_name"`
	Establishment   string         `json:"establishment"`
	ExpeditionPoint string         `json:"expedition_point"`
	IssueDate       string         `json:"issue_date"`
	Currency        string         `json:"currency"`
	PaymentTerms    string         `json:"payment_terms"`
	CreditDays      int            `json:"credit_days,omitempty"`
	Buyer           DocumentBuyer  `json:"buyer"`
	Items           []DocumentItem `json:"items"`
	Totals          DocumentTotals `json:"totals"`
}

// DocumentBuyer es el receptor en el documento enviado
type DocumentBuyer struct {
	RUC     string `json:"ruc,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
}

// DocumentItem es una línea del documento con sus importes exactos
type DocumentItem struct {
	LineNumber  int             `json:"line_number"`
	Code        string          `json:"code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     int             `json:"tax_rate"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
}

// DocumentTotals son los totales redondeados a la moneda del documento
type DocumentTotals struct {
	Taxable5  decimal.Decimal `json:"taxable_5"`
	Taxable10 decimal.Decimal `json:"taxable_10"`
	Exempt    decimal.Decimal `json:"exempt"`
	Tax5      decimal.Decimal `json:"tax_5"`
	Tax10     decimal.Decimal `json:"tax_10"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// NewDocument arma el documento a enviar. Solo se envían facturas PENDING.
func NewDocument(inv *invoicing.Invoice, issuer Issuer) (*Document, error) {
	if inv.Status() != invoicing.StatusPending {
		return nil, fmt.Errorf("invoice %s is %s, only PENDING invoices are sent", inv.ID(), inv.Status())
	}

	lines := inv.Lines()
	figures, err := invoicing.ComputeLines(lines)
	if err != nil {
		return nil, err
	}
	totals, err := inv.Totals()
	if err != nil {
		return nil, err
	}

	items := make([]DocumentItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, DocumentItem{
			LineNumber:  line.LineNumber,
			Code:        line.ProductCode,
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

	docTotals := DocumentTotals{
		Subtotal:  totals.Subtotal,
		TaxAmount: totals.TaxAmount,
		Total:     totals.Total,
	}
	for _, rt := range totals.Breakdown {
		switch rt.Rate {
		case invoicing.TaxRate5:
			docTotals.Taxable5, docTotals.Tax5 = rt.Taxable, rt.Tax
		case invoicing.TaxRate10:
			docTotals.Taxable10, docTotals.Tax10 = rt.Taxable, rt.Tax
		case invoicing.TaxRateExempt:
			docTotals.Exempt = rt.Taxable
		}
	}

	header := inv.Header()
	return &Document{
		InvoiceID:       inv.ID(),
		Number:          inv.Number(),
		IssuerRUC:       issuer.RUC,
		IssuerName:      issuer.LegalName,
		Establishment:   issuer.Establishment,
		ExpeditionPoint: issuer.ExpeditionPoint,
		IssueDate:       header.IssueDate.Format("2006-01-02"),
		Currency:        string(header.Currency),
		PaymentTerms:    string(header.PaymentTerms),
		CreditDays:      header.CreditDays,
		Buyer: DocumentBuyer{
			RUC:     header.Buyer.RUC,
			Name:    header.Buyer.Name,
			Address: header.Buyer.Address,
			Email:   header.Buyer.Email,
		},
		Items:  items,
		Totals: docTotals,
	}, nil
}
