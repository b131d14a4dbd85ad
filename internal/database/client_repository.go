package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

const clientColumns = `
	id, company_id, ruc, legal_name, trade_name, address, phone, email,
	is_active, created_at, updated_at`

// ClientRepository maneja las operaciones de base de datos para Client
type ClientRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewClientRepository crea una nueva instancia del repositorio
func NewClientRepository(db *DB, logger *logrus.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

func scanClient(row rowScanner) (*models.Client, error) {
	var client models.Client
	var ruc, tradeName, address, phone, email sql.NullString
	err := row.Scan(
		&client.ID, &client.CompanyID, &ruc, &client.LegalName, &tradeName,
		&address, &phone, &email, &client.IsActive, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	client.RUC = stringPtr(ruc)
	client.TradeName = stringPtr(tradeName)
	client.Address = stringPtr(address)
	client.Phone = stringPtr(phone)
	client.Email = stringPtr(email)
	return &client, nil
}

// Create crea un nuevo cliente
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (
			id, company_id, ruc, legal_name, trade_name, address, phone, email,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecWithTimeout(ctx, query,
		client.ID, client.CompanyID, nullString(client.RUC), client.LegalName,
		nullString(client.TradeName), nullString(client.Address),
		nullString(client.Phone), nullString(client.Email),
		client.IsActive, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error creating client: %w", err)
	}

	return nil
}

// GetByID obtiene un cliente activo por ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND is_active = true`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying client: %w", err)
	}

	return client, nil
}

// ListByCompany obtiene los clientes activos de una empresa
func (r *ClientRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE company_id = $1 AND is_active = true
		ORDER BY legal_name`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("error querying clients: %w", err)
	}
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning client: %w", err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}

// Update actualiza un cliente activo
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET ruc = $1, legal_name = $2, trade_name = $3, address = $4,
			phone = $5, email = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`

	client.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecWithTimeout(ctx, query,
		nullString(client.RUC), client.LegalName, nullString(client.TradeName),
		nullString(client.Address), nullString(client.Phone), nullString(client.Email),
		client.IsActive, client.UpdatedAt, client.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating client: %w", err)
	}

	return expectOneRow(result, ErrNotFound)
}

// Delete elimina un cliente (soft delete)
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE clients SET is_active = false, updated_at = $1 WHERE id = $2 AND is_active = true`

	result, err := r.db.ExecWithTimeout(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("error deleting client: %w", err)
	}

	return expectOneRow(result, ErrNotFound)
}
