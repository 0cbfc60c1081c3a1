package stock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/application/stock"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
	"github.com/tu-usuario/material-stock/internal/infrastructure/memory"
	"github.com/tu-usuario/material-stock/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testActor = dto.Actor{ID: "u-1", Name: "Operador de Bodega"}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func listAllFor(materialID string) repository.TransactionFilter {
	return repository.TransactionFilter{MaterialID: materialID, Status: "all", Limit: 1000}
}

func newEngine(t *testing.T, allowNegative bool) (*stock.StockUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	uc := stock.NewStockUseCase(store, stock.Config{AllowNegativeStock: allowNegative}, logger.Nop())
	return uc, store
}

// seedMaterial crea un material directamente en el almacén (sin ledger).
func seedMaterial(t *testing.T, store *memory.Store, code, quantity, minStock, maxStock, unitPrice string) *entity.Material {
	t.Helper()
	now := time.Now()
	m := &entity.Material{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      "Material " + code,
		Category:  "otomasyon",
		Unit:      "adet",
		Quantity:  dec(quantity),
		MinStock:  dec(minStock),
		MaxStock:  dec(maxStock),
		UnitPrice: dec(unitPrice),
		Status:    entity.MaterialStatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.MaterialRepo().Create(context.Background(), m))
	return m
}

// currentQuantity relee la cantidad del material desde el almacén.
func currentQuantity(t *testing.T, store *memory.Store, id string) decimal.Decimal {
	t.Helper()
	m, err := store.MaterialRepo().GetByID(context.Background(), id)
	require.NoError(t, err)
	return m.Quantity
}

// assertLedgerInvariant verifica cantidad == Σ deltas de entradas no canceladas.
func assertLedgerInvariant(t *testing.T, store *memory.Store, materialID string) {
	t.Helper()
	m, err := store.MaterialRepo().GetByID(context.Background(), materialID)
	require.NoError(t, err)
	entries, _, err := store.TransactionRepo().List(context.Background(), listAllFor(materialID))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, e := range entries {
		if e.Status == entity.TransactionStatusCancelled {
			continue
		}
		sum = sum.Add(e.Quantity)
	}
	assert.True(t, m.Quantity.Equal(sum),
		"invariante roto: cantidad=%s, Σ deltas=%s", m.Quantity, sum)
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas
// ──────────────────────────────────────────────────────────────────────────────

// Alta con stock 0 y recepción de 15 unidades a 100: cantidad 15, nivel
// normal y una entrada type=in con valor 1500.
func TestReceive_EntradaNormal(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO001", "0", "5", "50", "100")

	res, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID,
		Quantity:   dec("15"),
		UnitPrice:  decPtr("100"),
		Reference:  "OC-2026-001",
	})
	require.NoError(t, err)

	assert.True(t, dec("15").Equal(res.Material.Quantity), "la cantidad debe quedar en 15")
	assert.Equal(t, entity.StockLevelNormal, res.Material.StockLevel())
	assert.Equal(t, entity.TransactionTypeIn, res.Transaction.Type)
	assert.True(t, dec("15").Equal(res.Transaction.Quantity), "las entradas guardan delta positivo")
	assert.True(t, dec("1500").Equal(res.Transaction.TotalValue), "valor = |delta| × precio")
	assert.Equal(t, entity.TransactionStatusCompleted, res.Transaction.Status)
	assert.False(t, res.LowStockWarning)

	assertLedgerInvariant(t, store, m.ID)
}

// Una recepción sin precio explícito reutiliza el precio actual del material;
// con precio explícito, el material queda con el último costo.
func TestReceive_PrecioOpcional(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO002", "10", "5", "50", "80")

	res, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID,
		Quantity:   dec("5"),
		Reference:  "OC-2026-002",
	})
	require.NoError(t, err)
	assert.True(t, dec("80").Equal(res.Transaction.UnitPrice), "sin precio explícito se usa el actual")

	res, err = uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID,
		Quantity:   dec("5"),
		UnitPrice:  decPtr("95"),
		Reference:  "OC-2026-003",
	})
	require.NoError(t, err)
	assert.True(t, dec("95").Equal(res.Material.UnitPrice), "la recepción fija el último costo")
}

func TestReceive_Validaciones(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO003", "0", "5", "50", "100")

	_, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: decimal.Zero, Reference: "X",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero debe rechazarse")

	_, err = uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("-5"), Reference: "X",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad negativa debe rechazarse")

	_, err = uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("5"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la referencia es obligatoria")

	_, err = uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: uuid.NewString(), Quantity: dec("5"), Reference: "X",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "material inexistente")
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas
// ──────────────────────────────────────────────────────────────────────────────

// Con 15 unidades y mínimo 5, una salida de 12 deja 3 (low_stock) y debe
// activar la advertencia de stock bajo sin fallar.
func TestIssue_DisparaAlertaStockBajo(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO004", "15", "5", "50", "100")

	res, err := uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID,
		Quantity:   dec("12"),
		Reference:  "PROY-A",
	})
	require.NoError(t, err)

	assert.True(t, dec("3").Equal(res.Material.Quantity))
	assert.Equal(t, entity.StockLevelLow, res.Material.StockLevel())
	assert.True(t, res.LowStockWarning, "3 <= 5 debe activar la advertencia")
	assert.Equal(t, entity.TransactionTypeOut, res.Transaction.Type)
	assert.True(t, dec("-12").Equal(res.Transaction.Quantity), "las salidas guardan delta negativo")
	assert.True(t, dec("1200").Equal(res.Transaction.TotalValue))

	assertLedgerInvariant(t, store, m.ID)
}

// Con 3 unidades, pedir 10 falla con el error tipado que lleva la cantidad
// disponible; el material no cambia y no se escribe nada al ledger.
func TestIssue_StockInsuficiente(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO005", "3", "5", "50", "100")

	_, err := uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID,
		Quantity:   dec("10"),
		Reference:  "PROY-B",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ierr *domain.InsufficientStockError
	require.ErrorAs(t, err, &ierr, "el error debe llevar la cantidad disponible")
	assert.True(t, dec("3").Equal(ierr.Current))
	assert.Equal(t, "adet", ierr.Unit)

	assert.True(t, dec("3").Equal(currentQuantity(t, store, m.ID)), "el material no debe cambiar")
	entries, total, err := store.TransactionRepo().List(context.Background(), listAllFor(m.ID))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total, "no debe quedar ninguna entrada en el ledger")
}

// Con stock negativo permitido por configuración, la misma salida pasa.
func TestIssue_StockNegativoPermitido(t *testing.T) {
	uc, store := newEngine(t, true)
	m := seedMaterial(t, store, "OTO006", "3", "5", "50", "100")

	res, err := uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID,
		Quantity:   dec("10"),
		Reference:  "PROY-C",
	})
	require.NoError(t, err)
	assert.True(t, dec("-7").Equal(res.Material.Quantity))
	assertLedgerInvariant(t, store, m.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

// Desde 3 unidades: delta -4 dejaría -1 y falla; delta -3 deja exactamente 0.
func TestAdjust_NuncaDejaNegativo(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO007", "3", "5", "50", "100")

	_, err := uc.Adjust(context.Background(), testActor, stock.AdjustInput{
		MaterialID: m.ID,
		Delta:      dec("-4"),
		Reason:     "daño",
	})
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
	assert.True(t, dec("3").Equal(currentQuantity(t, store, m.ID)))

	res, err := uc.Adjust(context.Background(), testActor, stock.AdjustInput{
		MaterialID: m.ID,
		Delta:      dec("-3"),
		Reason:     "daño",
	})
	require.NoError(t, err)
	assert.True(t, res.Material.Quantity.IsZero(), "llegar exactamente a cero es válido")
	assert.Equal(t, entity.TransactionTypeAdjustment, res.Transaction.Type)
	assert.True(t, dec("-3").Equal(res.Transaction.Quantity))
	assert.Contains(t, res.Transaction.Description, "daño", "el motivo queda en la descripción")

	assertLedgerInvariant(t, store, m.ID)
}

func TestAdjust_Validaciones(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO008", "10", "5", "50", "100")

	_, err := uc.Adjust(context.Background(), testActor, stock.AdjustInput{
		MaterialID: m.ID, Delta: decimal.Zero, Reason: "conteo",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "delta cero no es un ajuste")

	_, err = uc.Adjust(context.Background(), testActor, stock.AdjustInput{
		MaterialID: m.ID, Delta: dec("2"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el motivo es obligatorio")
}

// Un ajuste positivo sin referencia genera una automática ADJ-.
func TestAdjust_ReferenciaAutomatica(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO009", "10", "5", "50", "100")

	res, err := uc.Adjust(context.Background(), testActor, stock.AdjustInput{
		MaterialID: m.ID,
		Delta:      dec("2.5"),
		Reason:     "conteo físico",
	})
	require.NoError(t, err)
	assert.True(t, dec("12.5").Equal(res.Material.Quantity))
	assert.Contains(t, res.Transaction.Reference, "ADJ-")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelaciones
// ──────────────────────────────────────────────────────────────────────────────

// Cancelar una salida devuelve las unidades; la entrada queda cancelled y el
// invariante se mantiene porque la entrada cancelada ya no cuenta.
func TestCancel_RevierteSalida(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO010", "20", "5", "50", "100")

	out, err := uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID, Quantity: dec("8"), Reference: "PROY-D",
	})
	require.NoError(t, err)

	res, err := uc.Cancel(context.Background(), testActor, out.Transaction.ID)
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(res.Material.Quantity), "la reversión devuelve las 8 unidades")
	assert.Equal(t, entity.TransactionStatusCancelled, res.Transaction.Status)

	assertLedgerInvariant(t, store, m.ID)
}

// Cancelar dos veces la misma entrada: la segunda devuelve Conflict y no toca
// el stock.
func TestCancel_SegundaVezEsConflicto(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO011", "20", "5", "50", "100")

	out, err := uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID, Quantity: dec("8"), Reference: "PROY-E",
	})
	require.NoError(t, err)

	_, err = uc.Cancel(context.Background(), testActor, out.Transaction.ID)
	require.NoError(t, err)
	qtyAfterFirst := currentQuantity(t, store, m.ID)

	_, err = uc.Cancel(context.Background(), testActor, out.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "una entrada cancelada no se cancela de nuevo")
	assert.True(t, qtyAfterFirst.Equal(currentQuantity(t, store, m.ID)),
		"la segunda cancelación no debe mover el stock")
}

// Cancelar una recepción cuando las unidades ya salieron dejaría el stock en
// negativo: falla y la entrada sigue completed.
func TestCancel_ReversionNoDejaNegativo(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO012", "0", "5", "50", "100")

	in, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("15"), UnitPrice: decPtr("100"), Reference: "OC-2026-004",
	})
	require.NoError(t, err)
	_, err = uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID, Quantity: dec("15"), Reference: "PROY-F",
	})
	require.NoError(t, err)

	// Stock actual 0: revertir la recepción restaría 15.
	_, err = uc.Cancel(context.Background(), testActor, in.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrNegativeStock)

	entry, err := store.TransactionRepo().GetByID(context.Background(), in.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionStatusCompleted, entry.Status,
		"la entrada debe seguir completed tras el intento fallido")
	assert.True(t, currentQuantity(t, store, m.ID).IsZero())
}

func TestCancel_EntradaInexistente(t *testing.T) {
	uc, _ := newEngine(t, false)
	_, err := uc.Cancel(context.Background(), testActor, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock inicial y códigos
// ──────────────────────────────────────────────────────────────────────────────

// El alta con cantidad > 0 registra la entrada sintética INITIAL- sin mover
// el stock, dejando el invariante en pie desde el primer movimiento.
func TestCreateInitialStock(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO013", "25", "5", "50", "40")

	entry, err := uc.CreateInitialStock(context.Background(), testActor, m)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, entity.TransactionTypeIn, entry.Type)
	assert.Equal(t, "INITIAL-OTO013", entry.Reference)
	assert.True(t, dec("25").Equal(entry.Quantity))
	assert.True(t, dec("1000").Equal(entry.TotalValue))
	assert.True(t, dec("25").Equal(currentQuantity(t, store, m.ID)), "no debe tocar la cantidad")

	assertLedgerInvariant(t, store, m.ID)
}

func TestCreateInitialStock_SinStockNoRegistraNada(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO014", "0", "5", "50", "40")

	entry, err := uc.CreateInitialStock(context.Background(), testActor, m)
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, total, err := store.TransactionRepo().List(context.Background(), listAllFor(m.ID))
	require.NoError(t, err)
	assert.Zero(t, total)
}

// Los códigos de transacción siguen el formato TYPE-YYYYMMDD-NNNN con
// secuencia por día y tipo.
func TestCodigosDeTransaccion(t *testing.T) {
	uc, store := newEngine(t, false)
	m := seedMaterial(t, store, "OTO015", "0", "5", "50", "10")

	day := time.Now().Format("20060102")
	first, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("5"), Reference: "OC-1",
	})
	require.NoError(t, err)
	second, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("5"), Reference: "OC-2",
	})
	require.NoError(t, err)
	out, err := uc.Issue(context.Background(), testActor, stock.IssueInput{
		MaterialID: m.ID, Quantity: dec("4"), Reference: "PROY-G",
	})
	require.NoError(t, err)

	assert.Equal(t, "IN-"+day+"-0001", first.Transaction.Code)
	assert.Equal(t, "IN-"+day+"-0002", second.Transaction.Code)
	assert.Equal(t, "OUT-"+day+"-0001", out.Transaction.Code, "la secuencia es por tipo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// errOnce es un TxRunner que inyecta un conflicto de versión la primera vez y
// delega al almacén real después; verifica que el motor reintenta.
type errOnce struct {
	store *memory.Store
	fired bool
}

func (r *errOnce) Run(ctx context.Context, fn func(
	materialRepo repository.MaterialRepository,
	txRepo repository.TransactionRepository,
) error) error {
	if !r.fired {
		r.fired = true
		return domain.ErrConcurrency
	}
	return r.store.Run(ctx, fn)
}

func TestReceive_ReintentaConflictoDeVersion(t *testing.T) {
	store := memory.NewStore()
	m := seedMaterial(t, store, "OTO016", "0", "5", "50", "10")
	runner := &errOnce{store: store}
	uc := stock.NewStockUseCase(runner, stock.Config{MaxRetries: 3}, logger.Nop())

	res, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("5"), Reference: "OC-3",
	})
	require.NoError(t, err, "un conflicto aislado debe absorberse con el reintento")
	assert.True(t, dec("5").Equal(res.Material.Quantity))
	assert.True(t, runner.fired)
}

// alwaysConflict agota los reintentos.
type alwaysConflict struct{ calls int }

func (r *alwaysConflict) Run(context.Context, func(
	repository.MaterialRepository,
	repository.TransactionRepository,
) error) error {
	r.calls++
	return domain.ErrConcurrency
}

func TestReceive_AgotaReintentos(t *testing.T) {
	runner := &alwaysConflict{}
	uc := stock.NewStockUseCase(runner, stock.Config{MaxRetries: 3}, logger.Nop())

	_, err := uc.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: uuid.NewString(), Quantity: dec("5"), Reference: "OC-4",
	})
	assert.True(t, errors.Is(err, domain.ErrConcurrency), "agotados los reintentos se devuelve el conflicto")
	assert.Equal(t, 3, runner.calls)
}
