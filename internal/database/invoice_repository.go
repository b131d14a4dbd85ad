package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const invoiceColumns = `
	id, company_id, client_id, number,
	buyer_ruc, buyer_name, buyer_address, buyer_phone, buyer_email,
	issue_date, currency, payment_terms, credit_days, notes,
	status, document_id, authorization_code, rejection_reason, void_reason,
	next_line_number, version, idempotency_key, request_hash, created_at, updated_at`

// InvoiceRecord es el estado persistido de una factura junto a sus metadatos de fila
type InvoiceRecord struct {
	Snapshot       invoicing.Snapshot
	Version        int
	IdempotencyKey string
	RequestHash    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IdempotencyKey identifica una creación repetible y el hash del cuerpo que la originó
type IdempotencyKey struct {
	Key         string
	RequestHash string
}

// InvoiceRepository maneja las operaciones de base de datos para Invoice
type InvoiceRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewInvoiceRepository crea una nueva instancia del repositorio
func NewInvoiceRepository(db *DB, logger *logrus.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// FormatDocumentNumber arma el número EEE-PPP-NNNNNNN
func FormatDocumentNumber(establishment, expeditionPoint string, sequence int64) string {
	return fmt.Sprintf("%s-%s-%07d", establishment, expeditionPoint, sequence)
}

// Create asigna el número de documento de la empresa y persiste la factura con sus líneas.
// Todo ocurre en una transacción, así un fallo no consume numeración.
func (r *InvoiceRepository) Create(ctx context.Context, snap invoicing.Snapshot, idem *IdempotencyKey) (*InvoiceRecord, error) {
	now := time.Now().UTC()
	record := &InvoiceRecord{Version: 1, CreatedAt: now, UpdatedAt: now}

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var establishment, expeditionPoint string
		var sequence int64
		err := tx.QueryRowContext(ctx, `
			UPDATE companies
			SET last_document_number = last_document_number + 1, updated_at = $2
			WHERE id = $1 AND is_active = true
			RETURNING establishment, expedition_point, last_document_number
		`, snap.Header.CompanyID, now).Scan(&establishment, &expeditionPoint, &sequence)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("error allocating document number: %w", err)
		}
		snap.Number = FormatDocumentNumber(establishment, expeditionPoint, sequence)

		var key, hash sql.NullString
		if idem != nil && idem.Key != "" {
			key = sql.NullString{String: idem.Key, Valid: true}
			hash = sql.NullString{String: idem.RequestHash, Valid: true}
			record.IdempotencyKey = idem.Key
			record.RequestHash = idem.RequestHash
		}

		h := snap.Header
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoices (
				id, company_id, client_id, number,
				buyer_ruc, buyer_name, buyer_address, buyer_phone, buyer_email,
				issue_date, currency, payment_terms, credit_days, notes,
				status, document_id, authorization_code, rejection_reason, void_reason,
				next_line_number, version, idempotency_key, request_hash, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
			)
		`,
			snap.ID, h.CompanyID, nullUUID(h.Buyer.ClientID), snap.Number,
			h.Buyer.RUC, h.Buyer.Name, h.Buyer.Address, h.Buyer.Phone, h.Buyer.Email,
			h.IssueDate.Format(models.DateLayout), string(h.Currency), string(h.PaymentTerms), h.CreditDays, h.Notes,
			string(snap.Status), snap.DocumentID, snap.AuthorizationCode, snap.RejectionReason, snap.VoidReason,
			snap.NextLineNumber, record.Version, key, hash, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("error inserting invoice: %w", err)
		}

		return insertLines(ctx, tx, snap.ID, snap.Lines)
	})
	if err != nil {
		return nil, err
	}

	record.Snapshot = snap
	r.logger.WithFields(logrus.Fields{
		"invoice_id": snap.ID,
		"company_id": snap.Header.CompanyID,
		"number":     snap.Number,
	}).Info("Invoice stored")
	return record, nil
}

// GetByID obtiene una factura con sus líneas
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceRecord, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetByIdempotencyKey obtiene la factura creada con la clave indicada, si existe
func (r *InvoiceRepository) GetByIdempotencyKey(ctx context.Context, companyID uuid.UUID, key string) (*InvoiceRecord, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE company_id = $1 AND idempotency_key = $2`, companyID, key)
}

func (r *InvoiceRepository) getOne(ctx context.Context, query string, args ...interface{}) (*InvoiceRecord, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	record, err := scanInvoice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying invoice: %w", err)
	}

	lines, err := r.loadLines(ctx, []uuid.UUID{record.Snapshot.ID})
	if err != nil {
		return nil, err
	}
	record.Snapshot.Lines = lines[record.Snapshot.ID]

	return record, nil
}

// List obtiene las facturas de una empresa filtradas por fecha de emisión y estado
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]InvoiceRecord, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	whereClauses := []string{"company_id = $1"}
	args := []interface{}{filter.CompanyID}
	if filter.From != nil {
		args = append(args, filter.From.Format(models.DateLayout))
		whereClauses = append(whereClauses, fmt.Sprintf("issue_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, filter.To.Format(models.DateLayout))
		whereClauses = append(whereClauses, fmt.Sprintf("issue_date <= $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY issue_date DESC, number DESC`,
		invoiceColumns, strings.Join(whereClauses, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying invoices: %w", err)
	}
	defer rows.Close()

	records := make([]InvoiceRecord, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		record, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning invoice: %w", err)
		}
		records = append(records, *record)
		ids = append(ids, record.Snapshot.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	if len(ids) == 0 {
		return records, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Snapshot.Lines = lines[records[i].Snapshot.ID]
	}

	return records, nil
}

// UpdateContent reemplaza las líneas de una factura PENDING si la versión no cambió
func (r *InvoiceRepository) UpdateContent(ctx context.Context, snap invoicing.Snapshot, version int) (*InvoiceRecord, error) {
	now := time.Now().UTC()
	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE invoices
			SET next_line_number = $1, version = version + 1, updated_at = $2
			WHERE id = $3 AND version = $4 AND status = $5
		`, snap.NextLineNumber, now, snap.ID, version, string(invoicing.StatusPending))
		if err != nil {
			return fmt.Errorf("error updating invoice: %w", err)
		}
		if err := expectOneRow(result, ErrStaleVersion); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, snap.ID); err != nil {
			return fmt.Errorf("error deleting invoice lines: %w", err)
		}
		return insertLines(ctx, tx, snap.ID, snap.Lines)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, snap.ID)
}

// UpdateLifecycle persiste estado y datos de la autoridad si la versión no cambió
func (r *InvoiceRepository) UpdateLifecycle(ctx context.Context, snap invoicing.Snapshot, version int) (*InvoiceRecord, error) {
	query := `
		UPDATE invoices
		SET status = $1, document_id = $2, authorization_code = $3,
			rejection_reason = $4, void_reason = $5, version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8
	`

	result, err := r.db.ExecWithTimeout(ctx, query,
		string(snap.Status), snap.DocumentID, snap.AuthorizationCode,
		snap.RejectionReason, snap.VoidReason, time.Now().UTC(), snap.ID, version,
	)
	if err != nil {
		return nil, fmt.Errorf("error updating invoice status: %w", err)
	}
	if err := expectOneRow(result, ErrStaleVersion); err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"invoice_id": snap.ID,
		"status":     snap.Status,
	}).Info("Invoice status stored")

	return r.GetByID(ctx, snap.ID)
}

func (r *InvoiceRepository) loadLines(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]invoicing.LineItem, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	// El orden por número de línea coincide con el de inserción porque los números nunca se reutilizan
	rows, err := r.db.QueryContext(ctx, `
		SELECT invoice_id, line_number, product_code, description, quantity, unit,
			   unit_price, discount, tax_rate
		FROM invoice_lines
		WHERE invoice_id = ANY($1::uuid[])
		ORDER BY invoice_id, line_number
	`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("error querying invoice lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[uuid.UUID][]invoicing.LineItem, len(ids))
	for rows.Next() {
		var invoiceID uuid.UUID
		var line invoicing.LineItem
		var unit string
		var taxRate int
		err := rows.Scan(
			&invoiceID, &line.LineNumber, &line.ProductCode, &line.Description,
			&line.Quantity, &unit, &line.UnitPrice, &line.Discount, &taxRate,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning invoice line: %w", err)
		}
		line.Unit = invoicing.UnitOfMeasure(unit)
		line.TaxRate = invoicing.TaxRate(taxRate)
		lines[invoiceID] = append(lines[invoiceID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice lines: %w", err)
	}

	return lines, nil
}

func insertLines(ctx context.Context, tx *sql.Tx, invoiceID uuid.UUID, lines []invoicing.LineItem) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invoice_lines (
			invoice_id, line_number, product_code, description, quantity, unit,
			unit_price, discount, tax_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("error preparing invoice line insert: %w", err)
	}
	defer stmt.Close()

	for _, line := range lines {
		_, err := stmt.ExecContext(ctx,
			invoiceID, line.LineNumber, line.ProductCode, line.Description,
			line.Quantity, string(line.Unit), line.UnitPrice, line.Discount, int(line.TaxRate),
		)
		if err != nil {
			return fmt.Errorf("error inserting invoice line %d: %w", line.LineNumber, err)
		}
	}

	return nil
}

func scanInvoice(row rowScanner) (*InvoiceRecord, error) {
	var record InvoiceRecord
	var clientID uuid.NullUUID
	var currency, terms, status string
	var key, hash sql.NullString
	snap := &record.Snapshot
	h := &snap.Header

	err := row.Scan(
		&snap.ID, &h.CompanyID, &clientID, &snap.Number,
		&h.Buyer.RUC, &h.Buyer.Name, &h.Buyer.Address, &h.Buyer.Phone, &h.Buyer.Email,
		&h.IssueDate, &currency, &terms, &h.CreditDays, &h.Notes,
		&status, &snap.DocumentID, &snap.AuthorizationCode, &snap.RejectionReason, &snap.VoidReason,
		&snap.NextLineNumber, &record.Version, &key, &hash, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		id := clientID.UUID
		h.Buyer.ClientID = &id
	}
	h.Currency = invoicing.Currency(currency)
	h.PaymentTerms = invoicing.PaymentTerms(terms)
	snap.Status = invoicing.Status(status)
	record.IdempotencyKey = key.String
	record.RequestHash = hash.String

	return &record, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
