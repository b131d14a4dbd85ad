package invoicing

import (
	"fmt"
	"strings"
)

// Status representa el estado del documento frente a la autoridad tributaria
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusVoided    Status = "VOIDED"
)

var statusLabels = map[Status]string{
	StatusPending:   "PENDIENTE",
	StatusSubmitted: "ENVIADO",
	StatusAccepted:  "ACEPTADO",
	StatusRejected:  "RECHAZADO",
	StatusVoided:    "ANULADO",
}

// Label retorna la etiqueta que muestra la consola de administración
func (s Status) Label() string {
	return statusLabels[s]
}

// Valid indica si el estado pertenece a la enumeración
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// ParseStatus acepta tanto el código como la etiqueta en español
func ParseStatus(raw string) (Status, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if s := Status(value); s.Valid() {
		return s, nil
	}
	for s, label := range statusLabels {
		if label == value {
			return s, nil
		}
	}
	return "", newValidationError("status", fmt.Sprintf("unknown status %q", raw))
}

// Action representa una operación del ciclo de vida invocable por un cliente
type Action string

const (
	ActionSubmit      Action = "SUBMIT"
	ActionQueryStatus Action = "QUERY_STATUS"
	ActionVoid        Action = "VOID"

	// Ediciones de contenido, permitidas solo mientras el documento está PENDING
	ActionAddLine    Action = "ADD_LINE"
	ActionUpdateLine Action = "UPDATE_LINE"
	ActionRemoveLine Action = "REMOVE_LINE"
)

// transitions es la tabla completa: acción -> estado de origen permitido
var transitions = map[Action]Status{
	ActionSubmit:      StatusPending,
	ActionQueryStatus: StatusSubmitted,
	ActionVoid:        StatusAccepted,
}

// actionOrder fija el orden de AvailableActions
var actionOrder = []Action{ActionSubmit, ActionQueryStatus, ActionVoid}

// Allowed indica si la acción es legal desde el estado dado
func Allowed(action Action, from Status) bool {
	required, ok := transitions[action]
	return ok && required == from
}

// AvailableActions retorna las acciones habilitadas para un estado
func AvailableActions(status Status) []Action {
	actions := []Action{}
	for _, action := range actionOrder {
		if Allowed(action, status) {
			actions = append(actions, action)
		}
	}
	return actions
}

func checkTransition(action Action, from Status) error {
	if !Allowed(action, from) {
		return &InvalidTransitionError{Action: action, From: from}
	}
	return nil
}

// Verdict es la respuesta de la autoridad a una consulta de estado.
// Las únicas implementaciones son PendingVerdict, AcceptedVerdict y RejectedVerdict.
type Verdict interface {
	verdict()
}

// PendingVerdict indica que la autoridad aún no decidió (incluye timeouts del canal)
type PendingVerdict struct{}

// AcceptedVerdict indica aprobación con su código de autorización
type AcceptedVerdict struct {
	AuthorizationCode string
}

// RejectedVerdict indica rechazo con el motivo informado por la autoridad
type RejectedVerdict struct {
	Reason string
}

func (PendingVerdict) verdict()  {}
func (AcceptedVerdict) verdict() {}
func (RejectedVerdict) verdict() {}

// resolve calcula el estado resultante de aplicar un veredicto a un documento enviado
func resolve(v Verdict) (Status, error) {
	switch v := v.(type) {
	case PendingVerdict:
		return StatusSubmitted, nil
	case AcceptedVerdict:
		if strings.TrimSpace(v.AuthorizationCode) == "" {
			return "", newValidationError("authorization_code", "is required for an accepted verdict")
		}
		return StatusAccepted, nil
	case RejectedVerdict:
		return StatusRejected, nil
	default:
		return "", newValidationError("verdict", fmt.Sprintf("unsupported verdict %T", v))
	}
}
