package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/database"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ClientService maneja la lógica de negocio para clientes
type ClientService struct {
	clients   ClientStore
	companies CompanyStore
	logger    *logrus.Logger
}

// NewClientService crea una nueva instancia del servicio
func NewClientService(clients ClientStore, companies CompanyStore, logger *logrus.Logger) *ClientService {
	return &ClientService{
		clients:   clients,
		companies: companies,
		logger:    logger,
	}
}

// Create crea un cliente para una empresa activa
func (s *ClientService) Create(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company: %w", err)
	}
	if !company.IsActive {
		return nil, ErrCompanyInactive
	}

	now := time.Now().UTC()
	client := &models.Client{
		ID:        uuid.New(),
		CompanyID: req.CompanyID,
		RUC:       trimmed(req.RUC),
		LegalName: strings.TrimSpace(req.LegalName),
		TradeName: trimmed(req.TradeName),
		Address:   trimmed(req.Address),
		Phone:     trimmed(req.Phone),
		Email:     trimmed(req.Email),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("error creating client: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"company_id": client.CompanyID,
		"client_id":  client.ID,
		"legal_name": client.LegalName,
	}).Info("Client created successfully")

	return client, nil
}

// GetByID obtiene un cliente por ID
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("error getting client: %w", err)
	}
	return client, nil
}

// ListByCompany lista los clientes activos de una empresa
func (s *ClientService) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error) {
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company: %w", err)
	}

	clients, err := s.clients.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("error listing clients: %w", err)
	}
	return clients, nil
}

// Update aplica los campos presentes del request
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateClientRequest) (*models.Client, error) {
	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RUC != nil {
		client.RUC = trimmed(req.RUC)
	}
	if req.LegalName != nil {
		client.LegalName = strings.TrimSpace(*req.LegalName)
	}
	if req.TradeName != nil {
		client.TradeName = trimmed(req.TradeName)
	}
	if req.Address != nil {
		client.Address = trimmed(req.Address)
	}
	if req.Phone != nil {
		client.Phone = trimmed(req.Phone)
	}
	if req.Email != nil {
		client.Email = trimmed(req.Email)
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	if err := s.clients.Update(ctx, client); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("error updating client: %w", err)
	}

	return client, nil
}

// Delete desactiva un cliente; las facturas ya emitidas conservan sus datos
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("error deleting client: %w", err)
	}

	s.logger.WithField("client_id", id).Info("Client deleted")
	return nil
}
