package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var dashboardStatuses = []invoicing.Status{
	invoicing.StatusPending,
	invoicing.StatusSubmitted,
	invoicing.StatusAccepted,
	invoicing.StatusRejected,
	invoicing.StatusVoided,
}

var dashboardCurrencies = []invoicing.Currency{invoicing.CurrencyPYG, invoicing.CurrencyUSD}

const monthLayout = "2006-01"

// ReportService arma los resúmenes de facturación de la consola
type ReportService struct {
	invoices  InvoiceStore
	companies CompanyStore
	logger    *logrus.Logger
}

// NewReportService crea una nueva instancia del servicio
func NewReportService(invoices InvoiceStore, companies CompanyStore, logger *logrus.Logger) *ReportService {
	return &ReportService{
		invoices:  invoices,
		companies: companies,
		logger:    logger,
	}
}

// Dashboard cuenta las facturas por estado y acumula sus totales por moneda, y arma
// la serie mensual por fecha de emisión. Los totales se recalculan desde las líneas guardadas.
func (s *ReportService) Dashboard(ctx context.Context, companyID uuid.UUID, from, to *time.Time) (*models.DashboardResponse, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, &invoicing.ValidationError{Field: "to", Issue: "must not be before from"}
	}
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company: %w", err)
	}

	records, err := s.invoices.List(ctx, models.InvoiceFilter{CompanyID: companyID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}

	counts := make(map[invoicing.Status]int, len(dashboardStatuses))
	sums := make(map[invoicing.Status]map[invoicing.Currency]decimal.Decimal, len(dashboardStatuses))
	monthCounts := make(map[string]int)
	monthSums := make(map[string]map[invoicing.Currency]decimal.Decimal)
	for _, record := range records {
		snap := record.Snapshot
		totals, err := invoicing.ComputeTotals(snap.Header.Currency, snap.Lines)
		if err != nil {
			return nil, fmt.Errorf("error computing totals for invoice %s: %w", snap.ID, err)
		}
		counts[snap.Status]++
		if sums[snap.Status] == nil {
			sums[snap.Status] = make(map[invoicing.Currency]decimal.Decimal, len(dashboardCurrencies))
		}
		sums[snap.Status][snap.Header.Currency] = sums[snap.Status][snap.Header.Currency].Add(totals.Total)

		month := snap.Header.IssueDate.Format(monthLayout)
		monthCounts[month]++
		if monthSums[month] == nil {
			monthSums[month] = make(map[invoicing.Currency]decimal.Decimal, len(dashboardCurrencies))
		}
		monthSums[month][snap.Header.Currency] = monthSums[month][snap.Header.Currency].Add(totals.Total)
	}

	byStatus := make([]models.StatusSummary, 0, len(dashboardStatuses))
	for _, status := range dashboardStatuses {
		summary := models.StatusSummary{
			Status: string(status),
			Label:  status.Label(),
			Count:  counts[status],
			Totals: currencyTotals(sums[status]),
		}
		byStatus = append(byStatus, summary)
	}

	months := make([]string, 0, len(monthCounts))
	for month := range monthCounts {
		months = append(months, month)
	}
	sort.Strings(months)
	byMonth := make([]models.MonthSummary, 0, len(months))
	for _, month := range months {
		byMonth = append(byMonth, models.MonthSummary{
			Month:  month,
			Count:  monthCounts[month],
			Totals: currencyTotals(monthSums[month]),
		})
	}

	response := &models.DashboardResponse{
		CompanyID:    companyID,
		InvoiceCount: len(records),
		ByStatus:     byStatus,
		ByMonth:      byMonth,
	}
	if from != nil {
		response.From = from.Format(models.DateLayout)
	}
	if to != nil {
		response.To = to.Format(models.DateLayout)
	}

	s.logger.WithFields(logrus.Fields{
		"company_id":    companyID,
		"invoice_count": response.InvoiceCount,
	}).Debug("Dashboard computed")

	return response, nil
}

// currencyTotals lista los montos en el orden fijo de monedas, omitiendo las que no aparecen
func currencyTotals(sums map[invoicing.Currency]decimal.Decimal) []models.CurrencyTotal {
	totals := make([]models.CurrencyTotal, 0, len(dashboardCurrencies))
	for _, currency := range dashboardCurrencies {
		if total, ok := sums[currency]; ok {
			totals = append(totals, models.CurrencyTotal{Currency: string(currency), Total: total})
		}
	}
	return totals
}
