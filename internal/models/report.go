package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardResponse representa el resumen de facturación de una empresa en un período
type DashboardResponse struct {
	CompanyID    uuid.UUID       `json:"company_id"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
	InvoiceCount int             `json:"invoice_count"`
	ByStatus     []StatusSummary `json:"by_status"`
	ByMonth      []MonthSummary  `json:"by_month"`
}

// StatusSummary representa la cantidad y los montos de un estado
type StatusSummary struct {
	Status string          `json:"status"`
	Label  string          `json:"label"`
	Count  int             `json:"count"`
	Totals []CurrencyTotal `json:"totals"`
}

// MonthSummary representa lo facturado en un mes calendario (YYYY-MM)
type MonthSummary struct {
	Month  string          `json:"month"`
	Count  int             `json:"count"`
	Totals []CurrencyTotal `json:"totals"`
}

// CurrencyTotal representa un monto acumulado en una moneda. Las monedas no se suman entre sí.
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
}
