package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceDocument es un archivo generado para una factura
type InvoiceDocument struct {
	Filename    string
	ContentType string
	Content     []byte
}

// InvoiceMail agrupa lo necesario para enviar el KuDE al receptor
type InvoiceMail struct {
	To                string
	BuyerName         string
	IssuerName        string
	IssuerRUC         string
	Number            string
	IssueDate         string
	Currency          string
	Total             decimal.Decimal
	AuthorizationCode string
	Attachment        InvoiceDocument
}

// DeliveryResponse resume la entrega de una factura aceptada
type DeliveryResponse struct {
	InvoiceID  uuid.UUID `json:"invoice_id"`
	Number     string    `json:"number"`
	Archived   bool      `json:"archived"`
	ArchiveURL string    `json:"archive_url,omitempty"`
	Emailed    bool      `json:"emailed"`
	EmailID    string    `json:"email_id,omitempty"`
	Note       string    `json:"note,omitempty"`
}
