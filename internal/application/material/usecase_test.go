package material_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/application/material"
	"github.com/tu-usuario/material-stock/internal/application/stock"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
	"github.com/tu-usuario/material-stock/internal/infrastructure/memory"
	"github.com/tu-usuario/material-stock/pkg/logger"
)

var testActor = dto.Actor{ID: "u-1", Name: "Jefe de Almacén"}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newUseCase(t *testing.T) (*material.MaterialUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return material.NewMaterialUseCase(store.MaterialRepo(), store.TransactionRepo()), store
}

func validRequest(code string) dto.CreateMaterialRequest {
	return dto.CreateMaterialRequest{
		Code:      code,
		Name:      "Sensor inductivo",
		Category:  "otomasyon",
		Unit:      "adet",
		Quantity:  dec("10"),
		MinStock:  dec("5"),
		MaxStock:  dec("50"),
		UnitPrice: dec("120"),
		Supplier:  "Proveedor A",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Altas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_NormalizaYPersiste(t *testing.T) {
	uc, _ := newUseCase(t)

	m, err := uc.Create(context.Background(), testActor, validRequest("oto001"))
	require.NoError(t, err)

	assert.Equal(t, "OTO001", m.Code, "el código se normaliza a mayúsculas")
	assert.Equal(t, entity.MaterialStatusActive, m.Status, "todo material nace activo")
	assert.Equal(t, int64(1), m.Version)
	assert.Equal(t, testActor.ID, m.CreatedBy)
	assert.NotEmpty(t, m.ID)
}

func TestCreate_CodigoDuplicado(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Create(context.Background(), testActor, validRequest("OTO001"))
	require.NoError(t, err)

	// Mismo código en otra capitalización sigue siendo duplicado.
	_, err = uc.Create(context.Background(), testActor, validRequest("oto001"))
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestCreate_Validaciones(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*dto.CreateMaterialRequest)
	}{
		{"código vacío", func(r *dto.CreateMaterialRequest) { r.Code = "  " }},
		{"nombre vacío", func(r *dto.CreateMaterialRequest) { r.Name = "" }},
		{"categoría desconocida", func(r *dto.CreateMaterialRequest) { r.Category = "hidraulica" }},
		{"unidad desconocida", func(r *dto.CreateMaterialRequest) { r.Unit = "galon" }},
		{"cantidad negativa", func(r *dto.CreateMaterialRequest) { r.Quantity = dec("-1") }},
		{"mínimo negativo", func(r *dto.CreateMaterialRequest) { r.MinStock = dec("-1") }},
		{"máximo menor que mínimo", func(r *dto.CreateMaterialRequest) { r.MinStock = dec("10"); r.MaxStock = dec("5") }},
		{"precio negativo", func(r *dto.CreateMaterialRequest) { r.UnitPrice = dec("-1") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest("VAL001")
			tc.mutate(&req)
			_, err := uc.Create(ctx, testActor, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Actualización parcial
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_Parcial(t *testing.T) {
	uc, store := newUseCase(t)
	m, err := uc.Create(context.Background(), testActor, validRequest("OTO002"))
	require.NoError(t, err)

	name := "Sensor capacitivo"
	price := dec("150")
	updated, err := uc.Update(context.Background(), m.ID, dto.UpdateMaterialRequest{
		Name:      &name,
		UnitPrice: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sensor capacitivo", updated.Name)
	assert.True(t, dec("150").Equal(updated.UnitPrice))
	assert.Equal(t, "OTO002", updated.Code, "los campos no enviados no cambian")

	persisted, err := store.MaterialRepo().GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(persisted.Quantity),
		"la actualización nunca toca la cantidad")
}

func TestUpdate_CodigoDuplicado(t *testing.T) {
	uc, _ := newUseCase(t)
	_, err := uc.Create(context.Background(), testActor, validRequest("OTO003"))
	require.NoError(t, err)
	m2, err := uc.Create(context.Background(), testActor, validRequest("OTO004"))
	require.NoError(t, err)

	code := "oto003"
	_, err = uc.Update(context.Background(), m2.ID, dto.UpdateMaterialRequest{Code: &code})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestUpdate_UmbralesInvalidos(t *testing.T) {
	uc, _ := newUseCase(t)
	m, err := uc.Create(context.Background(), testActor, validRequest("OTO005"))
	require.NoError(t, err)

	// Subir solo el mínimo por encima del máximo existente debe fallar.
	min := dec("80")
	_, err = uc.Update(context.Background(), m.ID, dto.UpdateMaterialRequest{MinStock: &min})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado
// ──────────────────────────────────────────────────────────────────────────────

func TestSoftDelete_DesactivaSinBorrar(t *testing.T) {
	uc, store := newUseCase(t)
	m, err := uc.Create(context.Background(), testActor, validRequest("OTO006"))
	require.NoError(t, err)

	require.NoError(t, uc.SoftDelete(context.Background(), m.ID))

	persisted, err := store.MaterialRepo().GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MaterialStatusInactive, persisted.Status)
}

func TestHardDelete_ConHistorialEsConflicto(t *testing.T) {
	uc, store := newUseCase(t)
	m, err := uc.Create(context.Background(), testActor, validRequest("OTO007"))
	require.NoError(t, err)

	// Con una transacción en el ledger el borrado físico se rechaza.
	engine := stock.NewStockUseCase(store, stock.Config{}, logger.Nop())
	_, err = engine.Receive(context.Background(), testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("5"), Reference: "OC-1",
	})
	require.NoError(t, err)

	err = uc.HardDelete(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = store.MaterialRepo().GetByID(context.Background(), m.ID)
	assert.NoError(t, err, "el material debe seguir existiendo")
}

func TestHardDelete_SinHistorial(t *testing.T) {
	uc, store := newUseCase(t)
	m, err := uc.Create(context.Background(), testActor, validRequest("OTO008"))
	require.NoError(t, err)

	require.NoError(t, uc.HardDelete(context.Background(), m.ID))

	_, err = store.MaterialRepo().GetByID(context.Background(), m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listados y alertas
// ──────────────────────────────────────────────────────────────────────────────

func TestList_FiltraYResume(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	reqA := validRequest("OTO009") // 10 × 120 = 1200, normal
	_, err := uc.Create(ctx, testActor, reqA)
	require.NoError(t, err)

	reqB := validRequest("ELK001")
	reqB.Category = "elektrik"
	reqB.Quantity = dec("2") // bajo el mínimo 5 → low_stock
	_, err = uc.Create(ctx, testActor, reqB)
	require.NoError(t, err)

	reqC := validRequest("MEK001")
	reqC.Category = "mekanik"
	reqC.Quantity = dec("0") // out_of_stock
	_, err = uc.Create(ctx, testActor, reqC)
	require.NoError(t, err)

	res, err := uc.List(ctx, repository.MaterialFilter{})
	require.NoError(t, err)

	assert.Len(t, res.Materials, 3)
	assert.Equal(t, 3, res.Stats.TotalItems)
	assert.Equal(t, 1, res.Stats.LowStockCount)
	assert.Equal(t, 1, res.Stats.OutOfStockCount)
	assert.True(t, dec("1440").Equal(res.Stats.TotalValue), "1200 + 240 + 0")

	filtered, err := uc.List(ctx, repository.MaterialFilter{Category: "elektrik"})
	require.NoError(t, err)
	require.Len(t, filtered.Materials, 1)
	assert.Equal(t, "ELK001", filtered.Materials[0].Code)
	assert.Equal(t, 3, filtered.Stats.TotalItems, "el resumen no depende del filtro de página")
}

func TestLowStockAlerts_OrdenAscendente(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	reqA := validRequest("OTO010")
	reqA.Quantity = dec("4")
	_, err := uc.Create(ctx, testActor, reqA)
	require.NoError(t, err)

	reqB := validRequest("OTO011")
	reqB.Quantity = dec("1")
	_, err = uc.Create(ctx, testActor, reqB)
	require.NoError(t, err)

	reqC := validRequest("OTO012")
	reqC.Quantity = dec("30") // normal, fuera de la alerta
	_, err = uc.Create(ctx, testActor, reqC)
	require.NoError(t, err)

	alerts, err := uc.LowStockAlerts(ctx)
	require.NoError(t, err)

	require.Len(t, alerts, 2)
	assert.Equal(t, "OTO011", alerts[0].Code, "el más crítico va primero")
	assert.Equal(t, "OTO010", alerts[1].Code)
}

func TestCategories_SoloActivasEnUso(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, testActor, validRequest("OTO013"))
	require.NoError(t, err)

	reqB := validRequest("PAN001")
	reqB.Category = "pano"
	mb, err := uc.Create(ctx, testActor, reqB)
	require.NoError(t, err)

	// Desactivado: su categoría ya no cuenta.
	require.NoError(t, uc.SoftDelete(ctx, mb.ID))

	cats, err := uc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "otomasyon", cats[0].Category)
	assert.Equal(t, 1, cats[0].Count)
}

func TestGet_IncluyeMovimientosRecientes(t *testing.T) {
	uc, store := newUseCase(t)
	ctx := context.Background()
	m, err := uc.Create(ctx, testActor, validRequest("OTO014"))
	require.NoError(t, err)

	engine := stock.NewStockUseCase(store, stock.Config{}, logger.Nop())
	_, err = engine.Receive(ctx, testActor, stock.ReceiveInput{
		MaterialID: m.ID, Quantity: dec("5"), Reference: "OC-2",
	})
	require.NoError(t, err)

	got, recent, err := uc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "OTO014", got.Code)
	require.Len(t, recent, 1)
	assert.Equal(t, entity.TransactionTypeIn, recent[0].Type)
}
