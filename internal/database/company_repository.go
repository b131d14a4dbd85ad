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

const companyColumns = `
	id, ruc, legal_name, trade_name, address, phone, email,
	establishment, expedition_point, last_document_number,
	is_active, created_at, updated_at`

// CompanyRepository maneja las operaciones de base de datos para Company
type CompanyRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewCompanyRepository crea una nueva instancia del repositorio
func NewCompanyRepository(db *DB, logger *logrus.Logger) *CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var company models.Company
	var tradeName, address, phone, email sql.NullString
	err := row.Scan(
		&company.ID, &company.RUC, &company.LegalName, &tradeName, &address, &phone, &email,
		&company.Establishment, &company.ExpeditionPoint, &company.LastDocumentNumber,
		&company.IsActive, &company.CreatedAt, &company.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	company.TradeName = stringPtr(tradeName)
	company.Address = stringPtr(address)
	company.Phone = stringPtr(phone)
	company.Email = stringPtr(email)
	return &company, nil
}

// Create crea una nueva empresa. Un RUC repetido retorna ErrConflict.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	query := `
		INSERT INTO companies (
			id, ruc, legal_name, trade_name, address, phone, email,
			establishment, expedition_point, last_document_number,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecWithTimeout(ctx, query,
		company.ID, company.RUC, company.LegalName,
		nullString(company.TradeName), nullString(company.Address),
		nullString(company.Phone), nullString(company.Email),
		company.Establishment, company.ExpeditionPoint, company.LastDocumentNumber,
		company.IsActive, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("error creating company: %w", err)
	}

	return nil
}

// GetByID obtiene una empresa por ID, incluidas las inactivas
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	company, err := scanCompany(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying company: %w", err)
	}

	return company, nil
}

// List obtiene las empresas ordenadas por razón social
func (r *CompanyRepository) List(ctx context.Context, activeOnly bool) ([]models.Company, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	query := `SELECT ` + companyColumns + ` FROM companies`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY legal_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying companies: %w", err)
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning company: %w", err)
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}

	return companies, nil
}

// Update persiste los datos editables de la empresa. El RUC y el contador de numeración no cambian.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	query := `
		UPDATE companies
		SET legal_name = $1, trade_name = $2, address = $3, phone = $4, email = $5,
			expedition_point = $6, is_active = $7, updated_at = $8
		WHERE id = $9
	`

	company.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecWithTimeout(ctx, query,
		company.LegalName, nullString(company.TradeName), nullString(company.Address),
		nullString(company.Phone), nullString(company.Email),
		company.ExpeditionPoint, company.IsActive, company.UpdatedAt, company.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating company: %w", err)
	}

	return expectOneRow(result, ErrNotFound)
}

// Deactivate desactiva una empresa (soft delete)
func (r *CompanyRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE companies SET is_active = false, updated_at = $1 WHERE id = $2 AND is_active = true`

	result, err := r.db.ExecWithTimeout(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("error deactivating company: %w", err)
	}

	return expectOneRow(result, ErrNotFound)
}
