package invoicing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation agrupa todos los errores de entrada corregibles por el llamador
	ErrValidation = errors.New("validation error")
	// ErrInvalidTransition agrupa las acciones ilegales para el estado actual
	ErrInvalidTransition = errors.New("invalid transition")
)

// ValidationError identifica el campo que violó una precondición
type ValidationError struct {
	Field string
	Issue string
}

// Error implementa la interfaz error
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Issue)
}

// Is permite errors.Is(err, ErrValidation)
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, issue string) *ValidationError {
	return &ValidationError{Field: field, Issue: issue}
}

// InvalidTransitionError indica que la acción no está permitida desde el estado actual
type InvalidTransitionError struct {
	Action Action
	From   Status
}

// Error implementa la interfaz error
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %s is not allowed from status %s", e.Action, e.From)
}

// Is permite errors.Is(err, ErrInvalidTransition)
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
