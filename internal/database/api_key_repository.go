package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/sirupsen/logrus"
)

const apiKeyPrefix = "sk_"

// APIKeyRepository maneja las operaciones de base de datos para API Keys
type APIKeyRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewAPIKeyRepository crea una nueva instancia del repositorio
func NewAPIKeyRepository(db *DB, logger *logrus.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger,
	}
}

// Create genera y persiste una nueva API key. Retorna la clave en texto plano una única vez.
func (r *APIKeyRepository) Create(ctx context.Context, name string) (*models.APIKey, string, error) {
	apiKey, err := GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	apiKeyModel := &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   HashAPIKey(apiKey),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO api_keys (id, name, key_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecWithTimeout(ctx, query,
		apiKeyModel.ID, apiKeyModel.Name, apiKeyModel.KeyHash,
		apiKeyModel.IsActive, apiKeyModel.CreatedAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("error creating API key: %w", err)
	}

	r.logger.WithFields(logrus.Fields{"api_key_id": apiKeyModel.ID, "name": name}).Info("API key created")
	return apiKeyModel, apiKey, nil
}

// GetByHash obtiene una API key activa por su hash
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, name, key_hash, is_active, created_at, last_used_at
		FROM api_keys
		WHERE key_hash = $1 AND is_active = true
	`

	var apiKey models.APIKey
	var lastUsed sql.NullTime
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&apiKey.ID, &apiKey.Name, &apiKey.KeyHash,
		&apiKey.IsActive, &apiKey.CreatedAt, &lastUsed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying API key: %w", err)
	}
	if lastUsed.Valid {
		apiKey.LastUsedAt = &lastUsed.Time
	}

	return &apiKey, nil
}

// UpdateLastUsed actualiza la última vez que se usó la API key
func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`

	if _, err := r.db.ExecWithTimeout(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("error updating API key last used: %w", err)
	}
	return nil
}

// Deactivate desactiva una API key
func (r *APIKeyRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecWithTimeout(ctx, `UPDATE api_keys SET is_active = false WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return fmt.Errorf("error deactivating API key: %w", err)
	}
	return expectOneRow(result, ErrNotFound)
}

// GenerateAPIKey genera una API key aleatoria de 32 bytes
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("error generating API key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// HashAPIKey genera el hash SHA-256 de la API key
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}
