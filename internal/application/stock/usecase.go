// Package stock implementa el motor de mutaciones de stock: entradas, salidas,
// ajustes y cancelaciones. Es el único camino por el que cambia la cantidad de
// un material, y mantiene el invariante central:
//
//	Material.Quantity == Σ deltas firmados de las transacciones no canceladas
//
// Cada operación corre dentro de una transacción (TxRunner) con bloqueo de
// fila y verificación de versión optimista; solo el conflicto de versión se
// reintenta internamente, con tope acotado.
package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
	"github.com/tu-usuario/material-stock/pkg/logger"
)

const opTimeout = 10 * time.Second

// Config configuración explícita del motor (sin estado global compartido).
type Config struct {
	// AllowNegativeStock permite que salidas y ajustes dejen stock negativo.
	AllowNegativeStock bool
	// MaxRetries reintentos ante conflicto de versión optimista.
	MaxRetries int
}

// Result resultado de una mutación: material actualizado, entrada del ledger
// y la señal de stock bajo (advertencia, no error).
type Result struct {
	Material        *entity.Material
	Transaction     *entity.Transaction
	LowStockWarning bool
}

// ReceiveInput entrada de stock (recepción).
type ReceiveInput struct {
	MaterialID  string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal // nil = reutiliza el precio actual del material
	Reference   string
	Description string
	Supplier    string
	Project     string
}

// IssueInput salida de stock.
type IssueInput struct {
	MaterialID  string
	Quantity    decimal.Decimal
	Reference   string
	Description string
	Project     string
}

// AdjustInput ajuste de stock con delta firmado y motivo obligatorio.
type AdjustInput struct {
	MaterialID string
	Delta      decimal.Decimal
	Reason     string
	Reference  string
}

// StockUseCase motor de mutaciones de stock.
type StockUseCase struct {
	txRunner TxRunner
	cfg      Config
	log      *logger.Logger
}

// NewStockUseCase construye el motor. El flag de stock negativo y el tope de
// reintentos llegan por configuración explícita del constructor.
func NewStockUseCase(txRunner TxRunner, cfg Config, log *logger.Logger) *StockUseCase {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &StockUseCase{txRunner: txRunner, cfg: cfg, log: log}
}

// Receive registra una entrada: suma la cantidad, fija el precio del material
// al de la recepción (las entradas establecen el último costo) y agrega la
// entrada type=in al ledger.
func (uc *StockUseCase) Receive(ctx context.Context, actor dto.Actor, in ReceiveInput) (*Result, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.Validationf("quantity", "la cantidad debe ser mayor que cero")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, domain.Validationf("unit_price", "el precio no puede ser negativo")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return nil, domain.Validationf("reference", "la referencia es obligatoria")
	}

	var res *Result
	err := uc.withRetry(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, txRepo repository.TransactionRepository) error {
			m, err := materialRepo.GetForUpdate(ctx, in.MaterialID)
			if err != nil {
				return err
			}
			price := m.UnitPrice
			if in.UnitPrice != nil {
				price = *in.UnitPrice
			}
			newQty := m.Quantity.Add(in.Quantity)
			if err := materialRepo.UpdateStock(ctx, m.ID, newQty, price, m.Version); err != nil {
				return err
			}
			entry, err := uc.appendEntry(ctx, txRepo, m, entity.TransactionTypeIn, in.Quantity, price, actor, entryMeta{
				Reference:   in.Reference,
				Description: in.Description,
				Supplier:    in.Supplier,
				Project:     in.Project,
			})
			if err != nil {
				return err
			}
			res = uc.result(m, newQty, price, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Issue registra una salida al precio actual del material. Falla con
// InsufficientStock (llevando la cantidad disponible) si no alcanza el stock,
// salvo que la configuración permita stock negativo. Activa la señal de stock
// bajo cuando la cantidad resultante queda en o bajo el mínimo.
func (uc *StockUseCase) Issue(ctx context.Context, actor dto.Actor, in IssueInput) (*Result, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.Validationf("quantity", "la cantidad debe ser mayor que cero")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return nil, domain.Validationf("reference", "la referencia es obligatoria")
	}

	var res *Result
	err := uc.withRetry(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, txRepo repository.TransactionRepository) error {
			m, err := materialRepo.GetForUpdate(ctx, in.MaterialID)
			if err != nil {
				return err
			}
			if m.Quantity.LessThan(in.Quantity) && !uc.cfg.AllowNegativeStock {
				return &domain.InsufficientStockError{Current: m.Quantity, Unit: m.Unit}
			}
			newQty := m.Quantity.Sub(in.Quantity)
			if err := materialRepo.UpdateStock(ctx, m.ID, newQty, m.UnitPrice, m.Version); err != nil {
				return err
			}
			entry, err := uc.appendEntry(ctx, txRepo, m, entity.TransactionTypeOut, in.Quantity.Neg(), m.UnitPrice, actor, entryMeta{
				Reference:   in.Reference,
				Description: in.Description,
				Project:     in.Project,
			})
			if err != nil {
				return err
			}
			res = uc.result(m, newQty, m.UnitPrice, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if res.LowStockWarning {
		uc.log.Warn().
			Str("material", res.Material.Code).
			Str("quantity", res.Material.Quantity.String()).
			Str("min_stock", res.Material.MinStock.String()).
			Msg("stock bajo tras salida")
	}
	return res, nil
}

// Adjust aplica un delta firmado con motivo obligatorio. Nunca deja la
// cantidad negativa (salvo configuración en contrario); el valor de la entrada
// se calcula con |delta| × precio actual.
func (uc *StockUseCase) Adjust(ctx context.Context, actor dto.Actor, in AdjustInput) (*Result, error) {
	if in.Delta.IsZero() {
		return nil, domain.Validationf("delta", "el ajuste no puede ser cero")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.Validationf("reason", "el motivo del ajuste es obligatorio")
	}
	reference := in.Reference
	if reference == "" {
		reference = fmt.Sprintf("ADJ-%d", time.Now().UnixMilli())
	}

	var res *Result
	err := uc.withRetry(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, txRepo repository.TransactionRepository) error {
			m, err := materialRepo.GetForUpdate(ctx, in.MaterialID)
			if err != nil {
				return err
			}
			newQty := m.Quantity.Add(in.Delta)
			if newQty.IsNegative() && !uc.cfg.AllowNegativeStock {
				return domain.ErrNegativeStock
			}
			if err := materialRepo.UpdateStock(ctx, m.ID, newQty, m.UnitPrice, m.Version); err != nil {
				return err
			}
			entry, err := uc.appendEntry(ctx, txRepo, m, entity.TransactionTypeAdjustment, in.Delta, m.UnitPrice, actor, entryMeta{
				Reference:   reference,
				Description: fmt.Sprintf("Ajuste de stock: %s → %s. Motivo: %s", m.Quantity.String(), newQty.String(), in.Reason),
			})
			if err != nil {
				return err
			}
			res = uc.result(m, newQty, m.UnitPrice, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel revierte el efecto de stock de una entrada completada y la marca
// cancelled. La entrada no se borra (auditoría). Una segunda cancelación del
// mismo ID devuelve ErrConflict sin tocar el stock. La reversión jamás deja la
// cantidad negativa, lo que protege contra cancelaciones dobles o fuera de
// orden de salidas dependientes.
func (uc *StockUseCase) Cancel(ctx context.Context, actor dto.Actor, transactionID string) (*Result, error) {
	var res *Result
	err := uc.withRetry(ctx, func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(materialRepo repository.MaterialRepository, txRepo repository.TransactionRepository) error {
			entry, err := txRepo.GetByID(ctx, transactionID)
			if err != nil {
				return err
			}
			if entry.Status != entity.TransactionStatusCompleted {
				return domain.ErrConflict
			}
			m, err := materialRepo.GetForUpdate(ctx, entry.MaterialID)
			if err != nil {
				return err
			}
			// Relectura bajo el lock del material: la primera lectura pudo
			// quedar obsoleta si otra cancelación del mismo ID ganó el lock.
			entry, err = txRepo.GetByID(ctx, transactionID)
			if err != nil {
				return err
			}
			if entry.Status != entity.TransactionStatusCompleted {
				return domain.ErrConflict
			}
			// Efecto inverso: restar el delta original. Con deltas firmados
			// cubre in, out, adjustment, transfer y return por igual.
			newQty := m.Quantity.Sub(entry.Quantity)
			if newQty.IsNegative() {
				return domain.ErrNegativeStock
			}
			if err := materialRepo.UpdateStock(ctx, m.ID, newQty, m.UnitPrice, m.Version); err != nil {
				return err
			}
			if err := txRepo.UpdateStatus(ctx, entry.ID, entity.TransactionStatusCompleted, entity.TransactionStatusCancelled); err != nil {
				return err
			}
			entry.Status = entity.TransactionStatusCancelled
			res = uc.result(m, newQty, m.UnitPrice, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("transaction", transactionID).
		Str("user", actor.ID).
		Msg("transacción cancelada")
	return res, nil
}

// CreateInitialStock agrega la entrada sintética de stock inicial de un
// material recién creado con cantidad > 0. No modifica la cantidad: el alta ya
// la dejó almacenada; aquí solo se hace visible en el ledger para que el
// invariante cantidad == Σ deltas se cumpla desde el primer día.
func (uc *StockUseCase) CreateInitialStock(ctx context.Context, actor dto.Actor, m *entity.Material) (*entity.Transaction, error) {
	if !m.Quantity.GreaterThan(decimal.Zero) {
		return nil, nil
	}
	var entry *entity.Transaction
	err := uc.txRunner.Run(ctx, func(_ repository.MaterialRepository, txRepo repository.TransactionRepository) error {
		var err error
		entry, err = uc.appendEntry(ctx, txRepo, m, entity.TransactionTypeIn, m.Quantity, m.UnitPrice, actor, entryMeta{
			Reference:   "INITIAL-" + m.Code,
			Description: "Stock inicial",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// entryMeta metadatos libres de una entrada del ledger.
type entryMeta struct {
	Reference   string
	Description string
	Supplier    string
	Project     string
}

// appendEntry construye y persiste la entrada del ledger. El valor total se
// calcula una sola vez aquí (|delta| × precio) y queda inmutable.
func (uc *StockUseCase) appendEntry(ctx context.Context, txRepo repository.TransactionRepository, m *entity.Material, txType string, delta, price decimal.Decimal, actor dto.Actor, meta entryMeta) (*entity.Transaction, error) {
	now := time.Now()
	code, err := nextCode(ctx, txRepo, txType, now)
	if err != nil {
		return nil, err
	}
	entry := &entity.Transaction{
		ID:          uuid.New().String(),
		Code:        code,
		Type:        txType,
		MaterialID:  m.ID,
		Quantity:    delta,
		UnitPrice:   price,
		TotalValue:  delta.Abs().Mul(price),
		Reference:   meta.Reference,
		Description: meta.Description,
		Supplier:    meta.Supplier,
		Project:     meta.Project,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Date:        now,
		Status:      entity.TransactionStatusCompleted,
		CreatedAt:   now,
	}
	if err := txRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// nextCode genera el código legible <TYPE>-<YYYYMMDD>-<secuencia 4 dígitos>.
func nextCode(ctx context.Context, txRepo repository.TransactionRepository, txType string, now time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%s", strings.ToUpper(txType), now.Format("20060102"))
	seq, err := txRepo.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}

// result arma el Result con el material ya actualizado en memoria.
func (uc *StockUseCase) result(m *entity.Material, newQty, price decimal.Decimal, entry *entity.Transaction) *Result {
	updated := *m
	updated.Quantity = newQty
	updated.UnitPrice = price
	updated.Version = m.Version + 1
	updated.UpdatedAt = entry.Date
	return &Result{
		Material:        &updated,
		Transaction:     entry,
		LowStockWarning: entry.Type == entity.TransactionTypeOut && newQty.LessThanOrEqual(updated.MinStock),
	}
}

// withRetry ejecuta op con timeout por operación y reintenta únicamente el
// conflicto de versión optimista, hasta cfg.MaxRetries veces. Todos los demás
// errores se devuelven de inmediato.
func (uc *StockUseCase) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < uc.cfg.MaxRetries; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		err = op(opCtx)
		cancel()
		if err == nil || !errors.Is(err, domain.ErrConcurrency) {
			return err
		}
		uc.log.Debug().Int("attempt", attempt+1).Msg("reintento por conflicto de concurrencia")
	}
	return err
}
