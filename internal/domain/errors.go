package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicateCode     = errors.New("código de material duplicado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNegativeStock     = errors.New("la operación dejaría el stock en negativo")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrConcurrency       = errors.New("conflicto de concurrencia: versión desactualizada")
)

// ValidationError señala el campo concreto que no pasó la validación.
// Envuelve ErrInvalidInput para que errors.Is funcione en las capas superiores.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Validationf construye un ValidationError con formato.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientStockError lleva la cantidad disponible para que el cliente
// pueda mostrar "disponible: <cantidad> <unidad>".
type InsufficientStockError struct {
	Current decimal.Decimal
	Unit    string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s %s", e.Current.String(), e.Unit)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
