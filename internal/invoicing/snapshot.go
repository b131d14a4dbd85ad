package invoicing

import (
	"fmt"

	"github.com/google/uuid"
)

// Snapshot es el estado completo de una factura tal como se persiste
type Snapshot struct {
	ID                uuid.UUID
	Number            string
	Header            Header
	Lines             []LineItem
	NextLineNumber    int
	Status            Status
	DocumentID        string
	AuthorizationCode string
	RejectionReason   string
	VoidReason        string
}

// Snapshot retorna una copia del estado para el colaborador de persistencia
func (inv *Invoice) Snapshot() Snapshot {
	return Snapshot{
		ID:                inv.id,
		Number:            inv.number,
		Header:            inv.header,
		Lines:             inv.Lines(),
		NextLineNumber:    inv.nextLineNumber,
		Status:            inv.status,
		DocumentID:        inv.documentID,
		AuthorizationCode: inv.authorizationCode,
		RejectionReason:   inv.rejectionReason,
		VoidReason:        inv.voidReason,
	}
}

// Restore reconstruye una factura desde su estado persistido.
// Revalida las invariantes estructurales para no cargar un agregado inconsistente.
func Restore(s Snapshot) (*Invoice, error) {
	if s.ID == uuid.Nil {
		return nil, newValidationError("id", "is required")
	}
	if !s.Status.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", s.Status))
	}
	if len(s.Lines) == 0 {
		return nil, newValidationError("lines", "at least one line is required")
	}

	seen := make(map[int]struct{}, len(s.Lines))
	next := s.NextLineNumber
	lines := make([]LineItem, len(s.Lines))
	for i, line := range s.Lines {
		if line.LineNumber <= 0 {
			return nil, newValidationError(fmt.Sprintf("lines[%d].line_number", i), "must be positive")
		}
		if _, dup := seen[line.LineNumber]; dup {
			return nil, newValidationError(fmt.Sprintf("lines[%d].line_number", i), fmt.Sprintf("duplicated line number %d", line.LineNumber))
		}
		seen[line.LineNumber] = struct{}{}
		if line.LineNumber >= next {
			next = line.LineNumber + 1
		}
		lines[i] = line
	}

	return &Invoice{
		id:                s.ID,
		number:            s.Number,
		header:            s.Header,
		lines:             lines,
		nextLineNumber:    next,
		status:            s.Status,
		documentID:        s.DocumentID,
		authorizationCode: s.AuthorizationCode,
		rejectionReason:   s.RejectionReason,
		voidReason:        s.VoidReason,
	}, nil
}
