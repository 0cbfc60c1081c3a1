package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveStockRequest body para POST /api/materials/:id/stock-in.
type ReceiveStockRequest struct {
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"` // nil = reutiliza el precio actual del material
	Reference   string           `json:"reference"`
	Description string           `json:"description,omitempty"`
	Supplier    string           `json:"supplier,omitempty"`
	Project     string           `json:"project,omitempty"`
}

// IssueStockRequest body para POST /api/materials/:id/stock-out.
type IssueStockRequest struct {
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
	Project     string          `json:"project,omitempty"`
}

// AdjustStockRequest body para POST /api/materials/:id/stock-adjustment.
// Delta es el cambio firmado; Reason es obligatorio.
type AdjustStockRequest struct {
	Delta     decimal.Decimal `json:"delta"`
	Reason    string          `json:"reason"`
	Reference string          `json:"reference,omitempty"`
}

// TransactionDTO entrada del ledger en respuestas.
type TransactionDTO struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	MaterialID  string          `json:"material_id"`
	Quantity    decimal.Decimal `json:"quantity"` // delta firmado
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Reference   string          `json:"reference"`
	Description string          `json:"description,omitempty"`
	Project     string          `json:"project,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	UserID      string          `json:"user_id"`
	UserName    string          `json:"user_name"`
	Date        time.Time       `json:"date"`
	Status      string          `json:"status"`
}

// StockOperationResponse resultado de una mutación de stock: el material
// actualizado, la entrada del ledger y la señal de stock bajo (no es un error).
type StockOperationResponse struct {
	Material        MaterialDTO    `json:"material"`
	Transaction     TransactionDTO `json:"transaction"`
	LowStockWarning bool           `json:"low_stock_warning,omitempty"`
}

// TransactionListResponse listado paginado de transacciones.
type TransactionListResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Pagination   PageResponse     `json:"pagination"`
}
