package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del ledger.
const (
	TransactionTypeIn         = "in"
	TransactionTypeOut        = "out"
	TransactionTypeAdjustment = "adjustment"
	TransactionTypeTransfer   = "transfer"
	TransactionTypeReturn     = "return"
)

// Estados de una transacción.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusCancelled = "cancelled"
)

// ValidTransactionType indica si el tipo pertenece al conjunto cerrado.
func ValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeIn, TransactionTypeOut, TransactionTypeAdjustment,
		TransactionTypeTransfer, TransactionTypeReturn:
		return true
	}
	return false
}

// Transaction es una entrada inmutable del ledger: un hecho sobre un cambio de
// cantidad aplicado a un material. Quantity es el delta firmado (salidas en
// negativo, como los movimientos de inventario); nunca cero. Una vez completada
// solo admite la transición de estado a cancelled; jamás se borra (auditoría).
type Transaction struct {
	ID          string
	Code        string // legible: <TYPE>-<YYYYMMDD>-<secuencia>, ej. IN-20260831-0001
	Type        string
	MaterialID  string
	Quantity    decimal.Decimal // delta firmado, != 0
	UnitPrice   decimal.Decimal // precio al momento de la transacción
	TotalValue  decimal.Decimal // |Quantity| × UnitPrice, calculado una vez al escribir
	Reference   string
	Description string
	Project     string
	Supplier    string
	UserID      string // quién ejecutó la operación
	UserName    string
	Date        time.Time
	Status      string
	CreatedAt   time.Time
}

// AbsQuantity devuelve el delta en valor absoluto (para totales y reportes).
func (t *Transaction) AbsQuantity() decimal.Decimal {
	return t.Quantity.Abs()
}
