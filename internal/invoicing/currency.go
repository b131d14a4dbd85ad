package invoicing

import "github.com/shopspring/decimal"

// Currency representa la moneda de la operación
type Currency string

const (
	CurrencyPYG Currency = "PYG"
	CurrencyUSD Currency = "USD"
)

// MinorUnits retorna la cantidad de decimales de la unidad mínima de la moneda
func (c Currency) MinorUnits() int32 {
	switch c {
	case CurrencyUSD:
		return 2
	default:
		return 0
	}
}

// Valid indica si la moneda es soportada por SIFEN en este servicio
func (c Currency) Valid() bool {
	return c == CurrencyPYG || c == CurrencyUSD
}

// Round redondea half-up a la unidad mínima de la moneda.
// decimal.Round redondea alejándose de cero, que coincide con half-up para montos no negativos.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.MinorUnits())
}

// PaymentTerms representa la condición de venta
type PaymentTerms string

const (
	PaymentTermsCash   PaymentTerms = "CASH"
	PaymentTermsCredit PaymentTerms = "CREDIT"
)

// Valid indica si la condición de venta es conocida
func (p PaymentTerms) Valid() bool {
	return p == PaymentTermsCash || p == PaymentTermsCredit
}
