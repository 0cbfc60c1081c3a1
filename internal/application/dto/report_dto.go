package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationItemDTO fila del reporte de valorización de stock.
type ValuationItemDTO struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalValue decimal.Decimal `json:"total_value"`
	StockLevel string          `json:"stock_level"`
}

// ValuationSummaryDTO agregados del reporte de valorización.
type ValuationSummaryDTO struct {
	ItemCount       int             `json:"item_count"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	LowStockCount   int             `json:"low_stock_count"`
	NormalCount     int             `json:"normal_count"`
	OverstockCount  int             `json:"overstock_count"`
}

// ValuationReportDTO reporte completo de valorización.
type ValuationReportDTO struct {
	Items       []ValuationItemDTO  `json:"items"`
	Summary     ValuationSummaryDTO `json:"summary"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// TypeTotalDTO agregado por tipo de transacción.
type TypeTotalDTO struct {
	Type          string          `json:"type"`
	Count         int             `json:"count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalQuantity decimal.Decimal `json:"total_quantity"` // suma de |delta|
}

// TransactionReportDTO reporte de movimientos con totales por tipo.
type TransactionReportDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	ByType       []TypeTotalDTO   `json:"by_type"`
	InValue      decimal.Decimal  `json:"in_value"`
	OutValue     decimal.Decimal  `json:"out_value"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// ABCItemDTO material clasificado en el análisis ABC.
type ABCItemDTO struct {
	MaterialID    string          `json:"material_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	TotalValue    decimal.Decimal `json:"total_value"`
	ValuePct      decimal.Decimal `json:"value_pct"`
	CumulativePct decimal.Decimal `json:"cumulative_pct"`
	Class         string          `json:"class"` // A, B o C
}

// ABCClassSummaryDTO resumen por clase (A, B o C).
type ABCClassSummaryDTO struct {
	Class      string          `json:"class"`
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ABCReportDTO resultado del análisis ABC sobre la ventana indicada.
type ABCReportDTO struct {
	WindowDays  int                  `json:"window_days"`
	Materials   []ABCItemDTO         `json:"materials"`
	Summary     []ABCClassSummaryDTO `json:"summary"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// CostGroupDTO fila del análisis de costos por grupo (categoría, proveedor o material).
type CostGroupDTO struct {
	Group     string          `json:"group"`
	Cost      decimal.Decimal `json:"cost"`       // Σ valor de entradas
	Revenue   decimal.Decimal `json:"revenue"`    // Σ valor de salidas
	NetValue  decimal.Decimal `json:"net_value"`  // revenue − cost
	MarginPct decimal.Decimal `json:"margin_pct"` // 0 cuando revenue es 0
	TxCount   int             `json:"tx_count"`
}

// MonthlyTrendDTO gasto mensual en entradas dentro de la ventana.
type MonthlyTrendDTO struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	TxCount    int             `json:"tx_count"`
}

// CostReportDTO análisis de costo/margen.
type CostReportDTO struct {
	WindowDays   int               `json:"window_days"`
	GroupBy      string            `json:"group_by"`
	Groups       []CostGroupDTO    `json:"groups"`
	MonthlyTrend []MonthlyTrendDTO `json:"monthly_trend"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// TopMaterialDTO material más usado (por valor de salidas) en el dashboard.
type TopMaterialDTO struct {
	MaterialID    string          `json:"material_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TxCount       int             `json:"tx_count"`
}

// DashboardSummaryDTO resumen para la pantalla principal.
type DashboardSummaryDTO struct {
	Stats        MaterialStatsDTO `json:"stats"`
	TodayIn      decimal.Decimal  `json:"today_in"`
	TodayOut     decimal.Decimal  `json:"today_out"`
	MonthIn      decimal.Decimal  `json:"month_in"`
	MonthOut     decimal.Decimal  `json:"month_out"`
	TopMaterials []TopMaterialDTO `json:"top_materials"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
