package models

import (
	"time"

	"github.com/google/uuid"
)

// Company representa una empresa emisora de facturas electrónicas
type Company struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	RUC                string    `json:"ruc" db:"ruc"`
	LegalName          string    `json:"legal_name" db:"legal_name"`
	TradeName          *string   `json:"trade_name,omitempty" db:"trade_name"`
	Address            *string   `json:"address,omitempty" db:"address"`
	Phone              *string   `json:"phone,omitempty" db:"phone"`
	Email              *string   `json:"email,omitempty" db:"email"`
	Establishment      string    `json:"establishment" db:"establishment"`
	ExpeditionPoint    string    `json:"expedition_point" db:"expedition_point"`
	LastDocumentNumber int64     `json:"last_document_number" db:"last_document_number"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// CreateCompanyRequest representa el request para crear una empresa
type CreateCompanyRequest struct {
	RUC             string  `json:"ruc" binding:"required,ruc"`
	LegalName       string  `json:"legal_name" binding:"required,max=255"`
	TradeName       *string `json:"trade_name,omitempty" binding:"omitempty,max=255"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Email           *string `json:"email,omitempty" binding:"omitempty,email"`
	Establishment   string  `json:"establishment,omitempty" binding:"omitempty,len=3,numeric"`
	ExpeditionPoint string  `json:"expedition_point,omitempty" binding:"omitempty,len=3,numeric"`
}

// UpdateCompanyRequest representa el request para actualizar una empresa.
// Los campos nulos no se modifican.
type UpdateCompanyRequest struct {
	LegalName       *string `json:"legal_name,omitempty" binding:"omitempty,min=1,max=255"`
	TradeName       *string `json:"trade_name,omitempty" binding:"omitempty,max=255"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	Email           *string `json:"email,omitempty" binding:"omitempty,email"`
	ExpeditionPoint *string `json:"expedition_point,omitempty" binding:"omitempty,len=3,numeric"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

// APIKey representa una clave de API de la consola
type APIKey struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	KeyHash    string     `json:"-" db:"key_hash"`
	IsActive   bool       `json:"is_active" db:"is_active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// CreateAPIKeyRequest representa el request para crear una API key
type CreateAPIKeyRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateAPIKeyResponse representa la respuesta al crear una API key.
// La clave en texto plano solo se devuelve en esta respuesta.
type CreateAPIKeyResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	APIKey string    `json:"api_key"`
}
