package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/material-stock/internal/domain/entity"
)

// TransactionFilter criterios de consulta sobre el ledger.
type TransactionFilter struct {
	MaterialID string
	Type       string // vacío o "all" = todos
	Status     string
	UserID     string
	Reference  string // subcadena, insensible a mayúsculas
	From       *time.Time
	To         *time.Time
	SortBy     string // date por defecto
	SortAsc    bool   // por defecto descendente
	Limit      int
	Offset     int
}

// TransactionRepository define el puerto de persistencia del ledger.
// Las entradas son append-only: no existe Delete; la cancelación es solo un
// cambio de estado vía UpdateStatus (requisito de auditoría).
type TransactionRepository interface {
	// Create persiste la entrada; asigna ID y timestamps si vienen vacíos.
	// Devuelve domain.ErrInvalidInput si el delta es cero o el precio negativo.
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// List devuelve la página solicitada y el total de entradas que cumplen el filtro.
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, int, error)
	// ListByDateRange devuelve todas las entradas del rango (snapshot para analítica).
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.Transaction, error)
	CountByMaterial(ctx context.Context, materialID string) (int, error)
	// NextSequence devuelve el siguiente consecutivo del día para el prefijo
	// dado (ej. "IN-20260831"), empezando en 1.
	NextSequence(ctx context.Context, prefix string) (int, error)
	// UpdateStatus cambia el estado de la entrada solo si su estado actual es
	// `from` (compare-and-swap). Devuelve domain.ErrNotFound si la entrada no
	// existe y domain.ErrConflict si el estado ya cambió; así dos cancelaciones
	// concurrentes de la misma entrada nunca aplican la reversión dos veces.
	UpdateStatus(ctx context.Context, id, from, to string) error
}
