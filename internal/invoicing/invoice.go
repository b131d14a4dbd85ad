package invoicing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Buyer representa al receptor de la factura. RUC y dirección pueden faltar
// para consumidores finales y receptores no contribuyentes.
type Buyer struct {
	ClientID *uuid.UUID
	RUC      string
	Name     string
	Address  string
	Phone    string
	Email    string
}

// Header agrupa los datos de cabecera del documento
type Header struct {
	CompanyID    uuid.UUID
	Buyer        Buyer
	IssueDate    time.Time
	Currency     Currency
	PaymentTerms PaymentTerms
	CreditDays   int
	Notes        string
}

func (h Header) normalize() Header {
	h.Buyer.RUC = strings.TrimSpace(h.Buyer.RUC)
	h.Buyer.Name = strings.TrimSpace(h.Buyer.Name)
	h.Buyer.Address = strings.TrimSpace(h.Buyer.Address)
	h.Buyer.Phone = strings.TrimSpace(h.Buyer.Phone)
	h.Buyer.Email = strings.TrimSpace(h.Buyer.Email)
	h.Notes = strings.TrimSpace(h.Notes)
	if h.PaymentTerms == "" {
		h.PaymentTerms = PaymentTermsCash
	}
	if h.PaymentTerms == PaymentTermsCash {
		h.CreditDays = 0
	}
	return h
}

func (h Header) validate() error {
	if h.CompanyID == uuid.Nil {
		return newValidationError("company_id", "is required")
	}
	if h.Buyer.Name == "" {
		return newValidationError("buyer.name", "is required")
	}
	if h.IssueDate.IsZero() {
		return newValidationError("issue_date", "is required")
	}
	if !h.Currency.Valid() {
		return newValidationError("currency", fmt.Sprintf("must be PYG or USD (got %q)", h.Currency))
	}
	if !h.PaymentTerms.Valid() {
		return newValidationError("payment_terms", fmt.Sprintf("must be CASH or CREDIT (got %q)", h.PaymentTerms))
	}
	if h.PaymentTerms == PaymentTermsCredit && h.CreditDays <= 0 {
		return newValidationError("credit_days", "must be positive for CREDIT terms")
	}
	return nil
}

// Invoice es el agregado de la factura. Solo sus métodos modifican líneas y estado.
// No es seguro para uso concurrente: cada agregado tiene un único escritor.
type Invoice struct {
	id                uuid.UUID
	number            string
	header            Header
	lines             []LineItem
	nextLineNumber    int
	status            Status
	documentID        string
	authorizationCode string
	rejectionReason   string
	voidReason        string
}

// NewInvoice construye una factura PENDING validando todo antes de crearla
func NewInvoice(id uuid.UUID, number string, header Header, inputs []LineInput) (*Invoice, error) {
	if id == uuid.Nil {
		return nil, newValidationError("id", "is required")
	}
	header = header.normalize()
	if err := header.validate(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, newValidationError("lines", "at least one line is required")
	}

	lines := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		in = in.normalize()
		if err := in.validate(fmt.Sprintf("lines[%d]", i)); err != nil {
			return nil, err
		}
		lines = append(lines, LineItem{LineNumber: i + 1, LineInput: in})
	}

	return &Invoice{
		id:             id,
		number:         number,
		header:         header,
		lines:          lines,
		nextLineNumber: len(lines) + 1,
		status:         StatusPending,
	}, nil
}

// ID retorna el identificador estable de la factura
func (inv *Invoice) ID() uuid.UUID { return inv.id }

// Number retorna el número de documento (establecimiento-punto-secuencia)
func (inv *Invoice) Number() string { return inv.number }

// Header retorna una copia de la cabecera
func (inv *Invoice) Header() Header { return inv.header }

// Status retorna el estado del ciclo de vida
func (inv *Invoice) Status() Status { return inv.status }

// DocumentID retorna el identificador asignado por el canal de envío
func (inv *Invoice) DocumentID() string { return inv.documentID }

// AuthorizationCode retorna el código emitido por la autoridad al aceptar
func (inv *Invoice) AuthorizationCode() string { return inv.authorizationCode }

// RejectionReason retorna el motivo de rechazo informado por la autoridad
func (inv *Invoice) RejectionReason() string { return inv.rejectionReason }

// VoidReason retorna el motivo de anulación
func (inv *Invoice) VoidReason() string { return inv.voidReason }

// Lines retorna una copia de las líneas en orden de inserción
func (inv *Invoice) Lines() []LineItem {
	out := make([]LineItem, len(inv.lines))
	copy(out, inv.lines)
	return out
}

// Totals recalcula los montos en cada llamada
func (inv *Invoice) Totals() (Totals, error) {
	return ComputeTotals(inv.header.Currency, inv.lines)
}

// AvailableActions retorna las acciones habilitadas para el estado actual
func (inv *Invoice) AvailableActions() []Action {
	return AvailableActions(inv.status)
}

// Editable indica si el contenido del documento todavía puede modificarse
func (inv *Invoice) Editable() bool {
	return inv.status == StatusPending
}

func (inv *Invoice) checkEditable(action Action) error {
	if !inv.Editable() {
		return &InvalidTransitionError{Action: action, From: inv.status}
	}
	return nil
}

func (inv *Invoice) indexOf(lineNumber int) int {
	for i, line := range inv.lines {
		if line.LineNumber == lineNumber {
			return i
		}
	}
	return -1
}

// AddLine agrega una línea con el siguiente número. Los números nunca se reutilizan.
func (inv *Invoice) AddLine(in LineInput) (LineItem, error) {
	if err := inv.checkEditable(ActionAddLine); err != nil {
		return LineItem{}, err
	}
	in = in.normalize()
	if err := in.validate("line"); err != nil {
		return LineItem{}, err
	}
	line := LineItem{LineNumber: inv.nextLineNumber, LineInput: in}
	inv.lines = append(inv.lines, line)
	inv.nextLineNumber++
	return line, nil
}

// UpdateLine reemplaza los valores de una línea existente manteniendo su número y posición
func (inv *Invoice) UpdateLine(lineNumber int, in LineInput) (LineItem, error) {
	if err := inv.checkEditable(ActionUpdateLine); err != nil {
		return LineItem{}, err
	}
	idx := inv.indexOf(lineNumber)
	if idx < 0 {
		return LineItem{}, newValidationError("line_number", fmt.Sprintf("line %d does not exist", lineNumber))
	}
	in = in.normalize()
	if err := in.validate("line"); err != nil {
		return LineItem{}, err
	}
	inv.lines[idx].LineInput = in
	return inv.lines[idx], nil
}

// RemoveLine elimina una línea sin renumerar las restantes
func (inv *Invoice) RemoveLine(lineNumber int) error {
	if err := inv.checkEditable(ActionRemoveLine); err != nil {
		return err
	}
	idx := inv.indexOf(lineNumber)
	if idx < 0 {
		return newValidationError("line_number", fmt.Sprintf("line %d does not exist", lineNumber))
	}
	if len(inv.lines) == 1 {
		return newValidationError("lines", "an invoice must keep at least one line")
	}
	inv.lines = append(inv.lines[:idx:idx], inv.lines[idx+1:]...)
	return nil
}

// Submit registra el acuse del canal de envío y pasa a SUBMITTED
func (inv *Invoice) Submit(documentID string) error {
	if err := checkTransition(ActionSubmit, inv.status); err != nil {
		return err
	}
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return newValidationError("document_id", "is required to acknowledge a submission")
	}
	if _, err := inv.Totals(); err != nil {
		return err
	}
	inv.documentID = documentID
	inv.status = StatusSubmitted
	return nil
}

// ApplyVerdict aplica la respuesta de la consulta de estado. Retorna true si el estado cambió.
// Un PendingVerdict deja la factura intacta, por lo que la consulta puede repetirse.
func (inv *Invoice) ApplyVerdict(v Verdict) (bool, error) {
	if err := checkTransition(ActionQueryStatus, inv.status); err != nil {
		return false, err
	}
	next, err := resolve(v)
	if err != nil {
		return false, err
	}
	switch v := v.(type) {
	case AcceptedVerdict:
		inv.authorizationCode = strings.TrimSpace(v.AuthorizationCode)
	case RejectedVerdict:
		inv.rejectionReason = strings.TrimSpace(v.Reason)
	}
	changed := next != inv.status
	inv.status = next
	return changed, nil
}

// Void anula un documento aceptado. El motivo es obligatorio.
func (inv *Invoice) Void(reason string) error {
	if err := checkTransition(ActionVoid, inv.status); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return newValidationError("reason", "is required to void an invoice")
	}
	inv.voidReason = reason
	inv.status = StatusVoided
	return nil
}
