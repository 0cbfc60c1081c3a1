package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de ciclo de vida de un material.
const (
	MaterialStatusActive       = "active"
	MaterialStatusInactive     = "inactive"
	MaterialStatusDiscontinued = "discontinued"
)

// Niveles de stock derivados (nunca se almacenan).
const (
	StockLevelOut       = "out_of_stock"
	StockLevelLow       = "low_stock"
	StockLevelNormal    = "normal"
	StockLevelOverstock = "overstock"
)

// Categorías válidas de material (conjunto cerrado).
var MaterialCategories = []string{"otomasyon", "pano", "elektrik", "mekanik", "yedek_parca"}

// Unidades de medida válidas (conjunto cerrado).
var MaterialUnits = []string{"adet", "metre", "kg", "litre", "paket", "kutu"}

// ValidCategory indica si la categoría pertenece al conjunto cerrado.
func ValidCategory(c string) bool {
	for _, v := range MaterialCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidUnit indica si la unidad pertenece al conjunto cerrado.
func ValidUnit(u string) bool {
	for _, v := range MaterialUnits {
		if v == u {
			return true
		}
	}
	return false
}

// ValidMaterialStatus indica si el estado es uno de los permitidos.
func ValidMaterialStatus(s string) bool {
	return s == MaterialStatusActive || s == MaterialStatusInactive || s == MaterialStatusDiscontinued
}

// Material representa un material en stock. Quantity es siempre la suma firmada
// de las transacciones no canceladas del ledger; nunca se modifica directamente,
// solo a través del motor de stock.
type Material struct {
	ID        string
	Code      string // código único, normalizado a mayúsculas
	Name      string
	Category  string
	Unit      string
	Quantity  decimal.Decimal
	MinStock  decimal.Decimal
	MaxStock  decimal.Decimal // >= MinStock
	UnitPrice decimal.Decimal // último costo de entrada
	Status    string          // active, inactive, discontinued
	Supplier  string
	Warehouse string
	Notes     string
	Version   int64 // contador de concurrencia optimista; incrementa con cada cambio de stock
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalValue devuelve Quantity × UnitPrice. Campo derivado, calculado al leer.
func (m *Material) TotalValue() decimal.Decimal {
	return m.Quantity.Mul(m.UnitPrice)
}

// StockLevel clasifica la cantidad actual contra MinStock/MaxStock.
// El orden de comprobación importa: agotado antes que bajo, bajo antes
// que exceso.
func (m *Material) StockLevel() string {
	switch {
	case m.Quantity.LessThanOrEqual(decimal.Zero):
		return StockLevelOut
	case m.Quantity.LessThanOrEqual(m.MinStock):
		return StockLevelLow
	case m.Quantity.GreaterThanOrEqual(m.MaxStock):
		return StockLevelOverstock
	default:
		return StockLevelNormal
	}
}
