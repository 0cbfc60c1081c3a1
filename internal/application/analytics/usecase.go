// Package analytics contiene el motor de reportes: valorización de stock,
// reporte de movimientos, análisis ABC y análisis de costo/margen.
//
// Es estrictamente de solo lectura sobre el registro de materiales y el
// ledger; toma un snapshot por llamada y delega el cálculo en funciones puras
// (compute.go), por lo que cada reporte es determinista y seguro de reejecutar.
package analytics

import (
	"context"
	"time"

	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

const dashboardTopMaterials = 5

// Agrupaciones válidas del análisis de costos.
const (
	GroupByCategory = "category"
	GroupBySupplier = "supplier"
	GroupByMaterial = "material"
)

// ValuationFilter filtro del reporte de valorización.
type ValuationFilter struct {
	Category   string
	Status     string // vacío = active
	StockLevel string
}

// ReportUseCase genera los reportes del sistema. Solo lectura.
type ReportUseCase struct {
	materialRepo repository.MaterialRepository
	txRepo       repository.TransactionRepository
}

// NewReportUseCase construye el motor de reportes.
func NewReportUseCase(materialRepo repository.MaterialRepository, txRepo repository.TransactionRepository) *ReportUseCase {
	return &ReportUseCase{materialRepo: materialRepo, txRepo: txRepo}
}

// StockValuation valoriza el stock actual de los materiales que cumplen el
// filtro: valor por ítem y agregados por nivel de stock. Determinista dado el
// mismo snapshot de materiales.
func (uc *ReportUseCase) StockValuation(ctx context.Context, filter ValuationFilter) (*dto.ValuationReportDTO, error) {
	if filter.Status == "" {
		filter.Status = entity.MaterialStatusActive
	}
	if filter.Status != "all" && !entity.ValidMaterialStatus(filter.Status) {
		return nil, domain.Validationf("status", "estado inválido: %s", filter.Status)
	}
	all, err := uc.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var snapshot []*entity.Material
	for _, m := range all {
		if filter.Status != "all" && m.Status != filter.Status {
			continue
		}
		if filter.Category != "" && filter.Category != "all" && m.Category != filter.Category {
			continue
		}
		if filter.StockLevel != "" && filter.StockLevel != "all" && m.StockLevel() != filter.StockLevel {
			continue
		}
		snapshot = append(snapshot, m)
	}
	items, summary := buildValuation(snapshot)
	return &dto.ValuationReportDTO{Items: items, Summary: summary, GeneratedAt: time.Now()}, nil
}

// TransactionReport lista movimientos filtrados con totales por tipo y los
// acumulados de valor de entrada y salida.
func (uc *ReportUseCase) TransactionReport(ctx context.Context, filter repository.TransactionFilter) (*dto.TransactionReportDTO, error) {
	if filter.Status == "" {
		filter.Status = entity.TransactionStatusCompleted
	}
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	entries, _, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	byType, inValue, outValue := buildTypeTotals(entries)
	return &dto.TransactionReportDTO{
		Transactions: dto.FromTransactions(entries),
		ByType:       byType,
		InValue:      inValue,
		OutValue:     outValue,
		GeneratedAt:  time.Now(),
	}, nil
}

// ABCAnalysis clasifica los materiales por su actividad (valor de entradas y
// salidas completadas) dentro de la ventana. Recalcula todo en cada llamada;
// no se mantiene incrementalmente.
func (uc *ReportUseCase) ABCAnalysis(ctx context.Context, windowDays int) (*dto.ABCReportDTO, error) {
	if windowDays <= 0 {
		return nil, domain.Validationf("window_days", "la ventana debe ser mayor que cero")
	}
	materials, entries, err := uc.snapshot(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	items, summary := classifyABC(materials, entries)
	return &dto.ABCReportDTO{
		WindowDays:  windowDays,
		Materials:   items,
		Summary:     summary,
		GeneratedAt: time.Now(),
	}, nil
}

// CostAnalysis agrupa costo (entradas) contra ventas (salidas) por categoría,
// proveedor o material, con el desglose mensual de gasto.
func (uc *ReportUseCase) CostAnalysis(ctx context.Context, windowDays int, groupBy string) (*dto.CostReportDTO, error) {
	if windowDays <= 0 {
		return nil, domain.Validationf("window_days", "la ventana debe ser mayor que cero")
	}
	materials, entries, err := uc.snapshot(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	var keyOf func(*entity.Transaction) string
	switch groupBy {
	case GroupByCategory:
		keyOf = func(e *entity.Transaction) string {
			if m, ok := materials[e.MaterialID]; ok {
				return m.Category
			}
			return "(sin categoría)"
		}
	case GroupBySupplier:
		keyOf = func(e *entity.Transaction) string {
			if e.Supplier != "" {
				return e.Supplier
			}
			if m, ok := materials[e.MaterialID]; ok && m.Supplier != "" {
				return m.Supplier
			}
			return "(sin proveedor)"
		}
	case GroupByMaterial:
		keyOf = func(e *entity.Transaction) string {
			if m, ok := materials[e.MaterialID]; ok {
				return m.Code
			}
			return e.MaterialID
		}
	default:
		return nil, domain.Validationf("group_by", "agrupación inválida: %s", groupBy)
	}

	return &dto.CostReportDTO{
		WindowDays:   windowDays,
		GroupBy:      groupBy,
		Groups:       buildCostGroups(keyOf, entries),
		MonthlyTrend: buildMonthlyTrend(entries),
		GeneratedAt:  time.Now(),
	}, nil
}

// DashboardSummary resume el estado del stock y la actividad de hoy y del mes
// en curso, con los materiales más usados del mes.
func (uc *ReportUseCase) DashboardSummary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	all, err := uc.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	materials := map[string]*entity.Material{}
	stats := dto.MaterialStatsDTO{}
	for _, m := range all {
		materials[m.ID] = m
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

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	monthEntries, err := uc.txRepo.ListByDateRange(ctx, monthStart, now)
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummaryDTO{Stats: stats, GeneratedAt: now}
	for _, e := range monthEntries {
		if e.Status != entity.TransactionStatusCompleted {
			continue
		}
		switch e.Type {
		case entity.TransactionTypeIn:
			summary.MonthIn = summary.MonthIn.Add(e.TotalValue)
			if !e.Date.Before(todayStart) {
				summary.TodayIn = summary.TodayIn.Add(e.TotalValue)
			}
		case entity.TransactionTypeOut:
			summary.MonthOut = summary.MonthOut.Add(e.TotalValue)
			if !e.Date.Before(todayStart) {
				summary.TodayOut = summary.TodayOut.Add(e.TotalValue)
			}
		}
	}
	summary.TopMaterials = buildTopMaterials(materials, monthEntries, dashboardTopMaterials)
	return summary, nil
}

// snapshot lee los materiales indexados por ID y las transacciones de la
// ventana [ahora − windowDays, ahora].
func (uc *ReportUseCase) snapshot(ctx context.Context, windowDays int) (map[string]*entity.Material, []*entity.Transaction, error) {
	all, err := uc.materialRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	materials := make(map[string]*entity.Material, len(all))
	for _, m := range all {
		materials[m.ID] = m
	}
	now := time.Now()
	entries, err := uc.txRepo.ListByDateRange(ctx, now.AddDate(0, 0, -windowDays), now)
	if err != nil {
		return nil, nil, err
	}
	return materials, entries, nil
}
