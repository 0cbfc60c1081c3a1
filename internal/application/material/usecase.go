// Package material implementa el registro de materiales: altas, consultas,
// actualizaciones parciales y el ciclo de vida de borrado (soft/hard).
// Nunca toca el ledger ni modifica cantidades; eso es del motor de stock.
package material

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

const recentTransactionsLimit = 10

// MaterialUseCase casos de uso del registro de materiales.
type MaterialUseCase struct {
	materialRepo repository.MaterialRepository
	txRepo       repository.TransactionRepository
}

// NewMaterialUseCase construye el caso de uso.
func NewMaterialUseCase(materialRepo repository.MaterialRepository, txRepo repository.TransactionRepository) *MaterialUseCase {
	return &MaterialUseCase{materialRepo: materialRepo, txRepo: txRepo}
}

// Create valida y persiste un material nuevo. El código se normaliza a
// mayúsculas y debe ser único. No escribe la entrada de stock inicial en el
// ledger: eso lo hace el motor de stock con el material ya creado.
func (uc *MaterialUseCase) Create(ctx context.Context, actor dto.Actor, in dto.CreateMaterialRequest) (*entity.Material, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, domain.Validationf("code", "el código es obligatorio")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validationf("name", "el nombre es obligatorio")
	}
	if !entity.ValidCategory(in.Category) {
		return nil, domain.Validationf("category", "categoría inválida: %s", in.Category)
	}
	if !entity.ValidUnit(in.Unit) {
		return nil, domain.Validationf("unit", "unidad inválida: %s", in.Unit)
	}
	if in.Quantity.IsNegative() {
		return nil, domain.Validationf("quantity", "la cantidad no puede ser negativa")
	}
	if in.MinStock.IsNegative() {
		return nil, domain.Validationf("min_stock", "el stock mínimo no puede ser negativo")
	}
	if in.MaxStock.LessThan(in.MinStock) {
		return nil, domain.Validationf("max_stock", "el stock máximo no puede ser menor que el mínimo")
	}
	if in.UnitPrice.IsNegative() {
		return nil, domain.Validationf("unit_price", "el precio no puede ser negativo")
	}

	if existing, err := uc.materialRepo.GetByCode(ctx, code); err == nil && existing != nil {
		return nil, domain.ErrDuplicateCode
	}

	now := time.Now()
	m := &entity.Material{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		Category:  in.Category,
		Unit:      in.Unit,
		Quantity:  in.Quantity,
		MinStock:  in.MinStock,
		MaxStock:  in.MaxStock,
		UnitPrice: in.UnitPrice,
		Status:    entity.MaterialStatusActive,
		Supplier:  in.Supplier,
		Warehouse: in.Warehouse,
		Notes:     in.Notes,
		Version:   1,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.materialRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get devuelve el material y sus últimas transacciones.
func (uc *MaterialUseCase) Get(ctx context.Context, id string) (*entity.Material, []*entity.Transaction, error) {
	m, err := uc.materialRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	recent, _, err := uc.txRepo.List(ctx, repository.TransactionFilter{
		MaterialID: id,
		Limit:      recentTransactionsLimit,
	})
	if err != nil {
		return nil, nil, err
	}
	return m, recent, nil
}

// Update aplica una actualización parcial revalidando los campos que cambian.
// Cualquier intento de mutar la cantidad por esta vía es rechazado antes de
// llegar aquí (el DTO no expone el campo); el repositorio tampoco la escribe.
func (uc *MaterialUseCase) Update(ctx context.Context, id string, in dto.UpdateMaterialRequest) (*entity.Material, error) {
	m, err := uc.materialRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*in.Code))
		if code == "" {
			return nil, domain.Validationf("code", "el código no puede quedar vacío")
		}
		if code != m.Code {
			if existing, err := uc.materialRepo.GetByCode(ctx, code); err == nil && existing != nil {
				return nil, domain.ErrDuplicateCode
			}
			m.Code = code
		}
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.Validationf("name", "el nombre no puede quedar vacío")
		}
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		if !entity.ValidCategory(*in.Category) {
			return nil, domain.Validationf("category", "categoría inválida: %s", *in.Category)
		}
		m.Category = *in.Category
	}
	if in.Unit != nil {
		if !entity.ValidUnit(*in.Unit) {
			return nil, domain.Validationf("unit", "unidad inválida: %s", *in.Unit)
		}
		m.Unit = *in.Unit
	}
	min, max := m.MinStock, m.MaxStock
	if in.MinStock != nil {
		min = *in.MinStock
	}
	if in.MaxStock != nil {
		max = *in.MaxStock
	}
	if min.IsNegative() {
		return nil, domain.Validationf("min_stock", "el stock mínimo no puede ser negativo")
	}
	if max.LessThan(min) {
		return nil, domain.Validationf("max_stock", "el stock máximo no puede ser menor que el mínimo")
	}
	m.MinStock, m.MaxStock = min, max
	if in.UnitPrice != nil {
		if in.UnitPrice.IsNegative() {
			return nil, domain.Validationf("unit_price", "el precio no puede ser negativo")
		}
		m.UnitPrice = *in.UnitPrice
	}
	if in.Status != nil {
		if !entity.ValidMaterialStatus(*in.Status) {
			return nil, domain.Validationf("status", "estado inválido: %s", *in.Status)
		}
		m.Status = *in.Status
	}
	if in.Supplier != nil {
		m.Supplier = *in.Supplier
	}
	if in.Warehouse != nil {
		m.Warehouse = *in.Warehouse
	}
	if in.Notes != nil {
		m.Notes = *in.Notes
	}

	m.UpdatedAt = time.Now()
	if err := uc.materialRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SoftDelete degrada el material a inactive. El historial del ledger se conserva.
func (uc *MaterialUseCase) SoftDelete(ctx context.Context, id string) error {
	m, err := uc.materialRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Status = entity.MaterialStatusInactive
	m.UpdatedAt = time.Now()
	return uc.materialRepo.Update(ctx, m)
}

// HardDelete elimina el material solo si no tiene transacciones; con historial
// devuelve ErrConflict (nunca se dejan entradas huérfanas en el ledger).
func (uc *MaterialUseCase) HardDelete(ctx context.Context, id string) error {
	if _, err := uc.materialRepo.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := uc.txRepo.CountByMaterial(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrConflict
	}
	return uc.materialRepo.Delete(ctx, id)
}

// List devuelve la página de materiales que cumplen el filtro junto con el
// resumen de stock de los materiales activos.
func (uc *MaterialUseCase) List(ctx context.Context, filter repository.MaterialFilter) (*dto.MaterialListResponse, error) {
	if filter.Status == "" {
		filter.Status = entity.MaterialStatusActive
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	list, total, err := uc.materialRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	all, err := uc.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats := dto.MaterialStatsDTO{TotalValue: decimal.Zero}
	for _, m := range all {
		if m.Status != entity.MaterialStatusActive {
			continue
		}
		stats.TotalItems++
		stats.TotalValue = stats.TotalValue.Add(m.TotalValue())
		switch m.StockLevel() {
		case entity.StockLevelLow:
			stats.LowStockCount++
		case entity.StockLevelOut:
			stats.OutOfStockCount++
		}
	}

	items := make([]dto.MaterialDTO, 0, len(list))
	for _, m := range list {
		items = append(items, dto.FromMaterial(m))
	}
	return &dto.MaterialListResponse{
		Materials:  items,
		Pagination: dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
		Stats:      stats,
	}, nil
}

// LowStockAlerts devuelve los materiales activos con cantidad <= stock mínimo,
// ordenados de menor a mayor cantidad (máximo 50).
func (uc *MaterialUseCase) LowStockAlerts(ctx context.Context) ([]*entity.Material, error) {
	all, err := uc.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var alerts []*entity.Material
	for _, m := range all {
		if m.Status != entity.MaterialStatusActive {
			continue
		}
		if m.Quantity.LessThanOrEqual(m.MinStock) {
			alerts = append(alerts, m)
		}
	}
	// inserción ordenada por cantidad ascendente; el listado es corto
	for i := 1; i < len(alerts); i++ {
		for j := i; j > 0 && alerts[j].Quantity.LessThan(alerts[j-1].Quantity); j-- {
			alerts[j], alerts[j-1] = alerts[j-1], alerts[j]
		}
	}
	if len(alerts) > 50 {
		alerts = alerts[:50]
	}
	return alerts, nil
}

// Categories devuelve las categorías en uso por materiales activos con su conteo.
func (uc *MaterialUseCase) Categories(ctx context.Context) ([]dto.CategoryCountDTO, error) {
	all, err := uc.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, m := range all {
		if m.Status == entity.MaterialStatusActive {
			counts[m.Category]++
		}
	}
	out := make([]dto.CategoryCountDTO, 0, len(counts))
	for _, c := range entity.MaterialCategories {
		if n, ok := counts[c]; ok {
			out = append(out, dto.CategoryCountDTO{Category: c, Count: n})
		}
	}
	return out, nil
}
