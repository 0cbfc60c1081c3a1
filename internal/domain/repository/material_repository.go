package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
)

// MaterialFilter criterios de listado de materiales.
type MaterialFilter struct {
	Category   string // vacío o "all" = sin filtro
	Status     string // estado de ciclo de vida; vacío = active
	StockLevel string // out_of_stock, low_stock, normal, overstock (derivado, se filtra en memoria)
	Search     string // busca en code, name y supplier
	SortBy     string // name por defecto
	SortDesc   bool
	Limit      int
	Offset     int
}

// MaterialRepository define el puerto de persistencia para Material (DIP).
// Las implementaciones devuelven domain.ErrNotFound / domain.ErrDuplicateCode
// según corresponda; nunca nil, nil.
type MaterialRepository interface {
	Create(ctx context.Context, material *entity.Material) error
	GetByID(ctx context.Context, id string) (*entity.Material, error)
	GetByCode(ctx context.Context, code string) (*entity.Material, error)
	Update(ctx context.Context, material *entity.Material) error
	// UpdateStock escribe cantidad y precio verificando la versión optimista;
	// devuelve domain.ErrConcurrency si la versión ya no coincide.
	UpdateStock(ctx context.Context, id string, quantity, unitPrice decimal.Decimal, expectedVersion int64) error
	// GetForUpdate obtiene el material bloqueando la fila (SELECT FOR UPDATE)
	// cuando el backend lo soporta; fuera de una transacción equivale a GetByID.
	GetForUpdate(ctx context.Context, id string) (*entity.Material, error)
	List(ctx context.Context, filter MaterialFilter) ([]*entity.Material, int, error)
	ListAll(ctx context.Context) ([]*entity.Material, error)
	Delete(ctx context.Context, id string) error
}
