package invoicing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate representa la tasa de IVA en porcentaje
type TaxRate int

const (
	TaxRateExempt TaxRate = 0
	TaxRate5      TaxRate = 5
	TaxRate10     TaxRate = 10
)

// TaxRates lista las tasas válidas en orden ascendente
var TaxRates = []TaxRate{TaxRateExempt, TaxRate5, TaxRate10}

// Valid indica si la tasa pertenece al conjunto {0, 5, 10}
func (r TaxRate) Valid() bool {
	switch r {
	case TaxRateExempt, TaxRate5, TaxRate10:
		return true
	}
	return false
}

// Percent retorna la tasa como decimal
func (r TaxRate) Percent() decimal.Decimal {
	return decimal.NewFromInt(int64(r))
}

// UnitOfMeasure representa la unidad de medida de la línea
type UnitOfMeasure string

const (
	UnitUnit  UnitOfMeasure = "UNI"
	UnitKilo  UnitOfMeasure = "KG"
	UnitLiter UnitOfMeasure = "LT"
	UnitMeter UnitOfMeasure = "MT"
)

// Valid indica si la unidad es conocida
func (u UnitOfMeasure) Valid() bool {
	switch u {
	case UnitUnit, UnitKilo, UnitLiter, UnitMeter:
		return true
	}
	return false
}

// LineInput son los valores que el usuario carga para una línea, sin número asignado
type LineInput struct {
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	Unit        UnitOfMeasure
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TaxRate     TaxRate
}

// LineItem representa una línea de la factura
type LineItem struct {
	LineNumber int
	LineInput
}

// normalize completa los valores por defecto sin validar
func (in LineInput) normalize() LineInput {
	in.ProductCode = strings.TrimSpace(in.ProductCode)
	in.Description = strings.TrimSpace(in.Description)
	if in.Unit == "" {
		in.Unit = UnitUnit
	}
	return in
}

// validate revisa las precondiciones de una línea. field es el prefijo usado en el error.
func (in LineInput) validate(field string) error {
	if in.Description == "" {
		return newValidationError(field+".description", "is required")
	}
	if !in.Quantity.IsPositive() {
		return newValidationError(field+".quantity", "must be greater than zero")
	}
	if in.UnitPrice.IsNegative() {
		return newValidationError(field+".unit_price", "must not be negative")
	}
	if in.Discount.IsNegative() {
		return newValidationError(field+".discount", "must not be negative")
	}
	if in.Discount.GreaterThan(in.Quantity.Mul(in.UnitPrice)) {
		return newValidationError(field+".discount", "must not exceed quantity * unitPrice")
	}
	if !in.TaxRate.Valid() {
		return newValidationError(field+".tax_rate", fmt.Sprintf("must be one of 0, 5, 10 (got %d)", in.TaxRate))
	}
	if !in.Unit.Valid() {
		return newValidationError(field+".unit", fmt.Sprintf("unknown unit of measure %q", in.Unit))
	}
	return nil
}

// Validate normaliza y valida la línea de forma independiente de una factura
func (in LineInput) Validate() error {
	return in.normalize().validate("line")
}
