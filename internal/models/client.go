package models

import (
	"time"

	"github.com/google/uuid"
)

// Client representa un cliente (receptor) de una empresa
type Client struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	RUC       *string   `json:"ruc,omitempty" db:"ruc"`
	LegalName string    `json:"legal_name" db:"legal_name"`
	TradeName *string   `json:"trade_name,omitempty" db:"trade_name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateClientRequest representa el request para crear un cliente
type CreateClientRequest struct {
	CompanyID uuid.UUID `json:"company_id" binding:"required"`
	RUC       *string   `json:"ruc,omitempty" binding:"omitempty,ruc"`
	LegalName string    `json:"legal_name" binding:"required,max=255"`
	TradeName *string   `json:"trade_name,omitempty" binding:"omitempty,max=255"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty" binding:"omitempty,email"`
}

// UpdateClientRequest representa el request para actualizar un cliente
type UpdateClientRequest struct {
	RUC       *string `json:"ruc,omitempty" binding:"omitempty,ruc"`
	LegalName *string `json:"legal_name,omitempty" binding:"omitempty,min=1,max=255"`
	TradeName *string `json:"trade_name,omitempty" binding:"omitempty,max=255"`
	Address   *string `json:"address,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	IsActive  *bool   `json:"is_active,omitempty"`
}
