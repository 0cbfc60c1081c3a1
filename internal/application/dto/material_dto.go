package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMaterialRequest body para POST /api/materials.
type CreateMaterialRequest struct {
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	Unit      string           `json:"unit"`
	Quantity  decimal.Decimal  `json:"quantity"` // stock inicial; genera entrada INITIAL- en el ledger
	MinStock  decimal.Decimal  `json:"min_stock"`
	MaxStock  decimal.Decimal  `json:"max_stock"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Supplier  string           `json:"supplier,omitempty"`
	Warehouse string           `json:"warehouse,omitempty"`
	Notes     string           `json:"notes,omitempty"`
}

// UpdateMaterialRequest body para PUT /api/materials/:id. Punteros = actualización parcial.
// No existe campo Quantity: el stock solo cambia a través del motor de stock.
type UpdateMaterialRequest struct {
	Code      *string          `json:"code,omitempty"`
	Name      *string          `json:"name,omitempty"`
	Category  *string          `json:"category,omitempty"`
	Unit      *string          `json:"unit,omitempty"`
	MinStock  *decimal.Decimal `json:"min_stock,omitempty"`
	MaxStock  *decimal.Decimal `json:"max_stock,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Status    *string          `json:"status,omitempty"`
	Supplier  *string          `json:"supplier,omitempty"`
	Warehouse *string          `json:"warehouse,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
}

// MaterialDTO representación de un material en respuestas, con derivados calculados.
type MaterialDTO struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	MinStock   decimal.Decimal `json:"min_stock"`
	MaxStock   decimal.Decimal `json:"max_stock"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"` // derivado: quantity × unit_price
	StockLevel string          `json:"stock_level"` // derivado
	Status     string          `json:"status"`
	Supplier   string          `json:"supplier,omitempty"`
	Warehouse  string          `json:"warehouse,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// MaterialStatsDTO resumen del listado de materiales activos.
type MaterialStatsDTO struct {
	TotalItems      int             `json:"total_items"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
}

// MaterialListResponse listado paginado con resumen.
type MaterialListResponse struct {
	Materials  []MaterialDTO    `json:"materials"`
	Pagination PageResponse     `json:"pagination"`
	Stats      MaterialStatsDTO `json:"stats"`
}

// CategoryCountDTO categoría con el número de materiales activos que la usan.
type CategoryCountDTO struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
