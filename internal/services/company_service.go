package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CompanyService maneja la lógica de negocio para empresas emisoras
type CompanyService struct {
	companies CompanyStore
	defaults  config.AuthorityConfig
	logger    *logrus.Logger
}

// NewCompanyService crea una nueva instancia del servicio
func NewCompanyService(companies CompanyStore, defaults config.AuthorityConfig, logger *logrus.Logger) *CompanyService {
	return &CompanyService{
		companies: companies,
		defaults:  defaults,
		logger:    logger,
	}
}

// Create registra una empresa. Sin establecimiento o punto de expedición se usan los de configuración.
func (s *CompanyService) Create(ctx context.Context, req *models.CreateCompanyRequest) (*models.Company, error) {
	now := time.Now().UTC()
	company := &models.Company{
		ID:              uuid.New(),
		RUC:             strings.TrimSpace(req.RUC),
		LegalName:       strings.TrimSpace(req.LegalName),
		TradeName:       trimmed(req.TradeName),
		Address:         trimmed(req.Address),
		Phone:           trimmed(req.Phone),
		Email:           trimmed(req.Email),
		Establishment:   firstNonEmpty(req.Establishment, s.defaults.DefaultEstablishment),
		ExpeditionPoint: firstNonEmpty(req.ExpeditionPoint, s.defaults.DefaultExpeditionPoint),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.companies.Create(ctx, company); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrDuplicateRUC
		}
		return nil, fmt.Errorf("error creating company: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"company_id": company.ID,
		"ruc":        company.RUC,
	}).Info("Company created successfully")

	return company, nil
}

// GetByID obtiene una empresa por ID
func (s *CompanyService) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company: %w", err)
	}
	return company, nil
}

// List lista las empresas; includeInactive agrega las desactivadas
func (s *CompanyService) List(ctx context.Context, includeInactive bool) ([]models.Company, error) {
	companies, err := s.companies.List(ctx, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("error listing companies: %w", err)
	}
	return companies, nil
}

// Update aplica los campos presentes del request
func (s *CompanyService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateCompanyRequest) (*models.Company, error) {
	company, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.LegalName != nil {
		company.LegalName = strings.TrimSpace(*req.LegalName)
	}
	if req.TradeName != nil {
		company.TradeName = trimmed(req.TradeName)
	}
	if req.Address != nil {
		company.Address = trimmed(req.Address)
	}
	if req.Phone != nil {
		company.Phone = trimmed(req.Phone)
	}
	if req.Email != nil {
		company.Email = trimmed(req.Email)
	}
	if req.ExpeditionPoint != nil {
		company.ExpeditionPoint = *req.ExpeditionPoint
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.companies.Update(ctx, company); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error updating company: %w", err)
	}

	s.logger.WithField("company_id", id).Info("Company updated")
	return company, nil
}

// Deactivate desactiva una empresa; sus facturas existentes no cambian
func (s *CompanyService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.companies.Deactivate(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrCompanyNotFound
		}
		return fmt.Errorf("error deactivating company: %w", err)
	}

	s.logger.WithField("company_id", id).Info("Company deactivated")
	return nil
}

// trimmed normaliza un campo opcional; vacío equivale a ausente
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
