package invoicing

import "github.com/shopspring/decimal"

// LineSubtotal calcula cantidad * precio unitario - descuento
func LineSubtotal(item LineItem) (decimal.Decimal, error) {
	subtotal := item.Quantity.Mul(item.UnitPrice).Sub(item.Discount)
	if subtotal.IsNegative() {
		return decimal.Zero, newValidationError("discount", "line subtotal would be negative")
	}
	return subtotal, nil
}

// LineTax calcula el IVA de la línea sobre el subtotal, sin redondear
func LineTax(item LineItem) (decimal.Decimal, error) {
	subtotal, err := LineSubtotal(item)
	if err != nil {
		return decimal.Zero, err
	}
	// Shift(-2) divide por 100 sin perder precisión
	return subtotal.Mul(item.TaxRate.Percent()).Shift(-2), nil
}

// RateTotals son la base imponible y el impuesto acumulados para una tasa
type RateTotals struct {
	Rate    TaxRate
	Taxable decimal.Decimal
	Tax     decimal.Decimal
}

// Totals representa los montos derivados de la factura, ya redondeados a la moneda
type Totals struct {
	Currency  Currency
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
	Breakdown []RateTotals
}

// LineFigures son los montos de una línea sin redondear, para mostrar
type LineFigures struct {
	LineNumber int
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
}

// ComputeLines calcula subtotal e impuesto de cada línea en el orden dado
func ComputeLines(lines []LineItem) ([]LineFigures, error) {
	figures := make([]LineFigures, 0, len(lines))
	for _, line := range lines {
		subtotal, err := LineSubtotal(line)
		if err != nil {
			return nil, err
		}
		tax, err := LineTax(line)
		if err != nil {
			return nil, err
		}
		figures = append(figures, LineFigures{LineNumber: line.LineNumber, Subtotal: subtotal, Tax: tax})
	}
	return figures, nil
}

// ComputeTotals acumula las líneas en orden y redondea una sola vez a nivel factura.
// El total se redondea desde las sumas exactas, no desde subtotal e IVA ya redondeados.
func ComputeTotals(currency Currency, lines []LineItem) (Totals, error) {
	figures, err := ComputeLines(lines)
	if err != nil {
		return Totals{}, err
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	byRate := make(map[TaxRate]*RateTotals, len(TaxRates))
	for _, rate := range TaxRates {
		byRate[rate] = &RateTotals{Rate: rate, Taxable: decimal.Zero, Tax: decimal.Zero}
	}

	for i, f := range figures {
		subtotal = subtotal.Add(f.Subtotal)
		tax = tax.Add(f.Tax)
		rt, ok := byRate[lines[i].TaxRate]
		if !ok {
			return Totals{}, newValidationError("tax_rate", "must be one of 0, 5, 10")
		}
		rt.Taxable = rt.Taxable.Add(f.Subtotal)
		rt.Tax = rt.Tax.Add(f.Tax)
	}

	breakdown := make([]RateTotals, 0, len(TaxRates))
	for _, rate := range TaxRates {
		rt := byRate[rate]
		breakdown = append(breakdown, RateTotals{
			Rate:    rate,
			Taxable: currency.Round(rt.Taxable),
			Tax:     currency.Round(rt.Tax),
		})
	}

	return Totals{
		Currency:  currency,
		Subtotal:  currency.Round(subtotal),
		TaxAmount: currency.Round(tax),
		Total:     currency.Round(subtotal.Add(tax)),
		Breakdown: breakdown,
	}, nil
}
