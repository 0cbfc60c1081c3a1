package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
)

// Umbrales de clasificación ABC: A hasta 80% acumulado, B hasta 95%, resto C.
var (
	hundred = decimal.NewFromInt(100)
	abcCutA = decimal.NewFromInt(80)
	abcCutB = decimal.NewFromInt(95)
)

// Las funciones de este archivo son puras: reciben snapshots y devuelven
// estructuras de reporte, sin estado oculto ni acceso a almacenamiento.
// Toda la agregación de dashboard y reportes vive aquí, una sola vez.

// buildValuation calcula el reporte de valorización sobre el snapshot dado.
func buildValuation(materials []*entity.Material) ([]dto.ValuationItemDTO, dto.ValuationSummaryDTO) {
	items := make([]dto.ValuationItemDTO, 0, len(materials))
	summary := dto.ValuationSummaryDTO{
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
	}
	for _, m := range materials {
		level := m.StockLevel()
		value := m.TotalValue()
		items = append(items, dto.ValuationItemDTO{
			Code:       m.Code,
			Name:       m.Name,
			Category:   m.Category,
			Unit:       m.Unit,
			Quantity:   m.Quantity,
			UnitPrice:  m.UnitPrice,
			TotalValue: value,
			StockLevel: level,
		})
		summary.ItemCount++
		summary.TotalQuantity = summary.TotalQuantity.Add(m.Quantity)
		summary.TotalValue = summary.TotalValue.Add(value)
		switch level {
		case entity.StockLevelOut:
			summary.OutOfStockCount++
		case entity.StockLevelLow:
			summary.LowStockCount++
		case entity.StockLevelOverstock:
			summary.OverstockCount++
		default:
			summary.NormalCount++
		}
	}
	return items, summary
}

// buildTypeTotals agrega las transacciones por tipo y acumula los valores de
// entrada y salida.
func buildTypeTotals(entries []*entity.Transaction) ([]dto.TypeTotalDTO, decimal.Decimal, decimal.Decimal) {
	byType := map[string]*dto.TypeTotalDTO{}
	var order []string
	inValue, outValue := decimal.Zero, decimal.Zero

	for _, e := range entries {
		t, ok := byType[e.Type]
		if !ok {
			t = &dto.TypeTotalDTO{Type: e.Type, TotalValue: decimal.Zero, TotalQuantity: decimal.Zero}
			byType[e.Type] = t
			order = append(order, e.Type)
		}
		t.Count++
		t.TotalValue = t.TotalValue.Add(e.TotalValue)
		t.TotalQuantity = t.TotalQuantity.Add(e.AbsQuantity())

		switch e.Type {
		case entity.TransactionTypeIn:
			inValue = inValue.Add(e.TotalValue)
		case entity.TransactionTypeOut:
			outValue = outValue.Add(e.TotalValue)
		}
	}

	out := make([]dto.TypeTotalDTO, 0, len(order))
	for _, k := range order {
		out = append(out, *byType[k])
	}
	return out, inValue, outValue
}

// classifyABC ordena la actividad por valor descendente (estable: los empates
// conservan el orden de llegada) y clasifica acumulando porcentaje del total:
// A mientras el acumulado sea <= 80%, B mientras <= 95%, C el resto.
func classifyABC(materials map[string]*entity.Material, entries []*entity.Transaction) ([]dto.ABCItemDTO, []dto.ABCClassSummaryDTO) {
	type usage struct {
		materialID string
		total      decimal.Decimal
	}
	totals := map[string]*usage{}
	var order []*usage
	for _, e := range entries {
		if e.Status != entity.TransactionStatusCompleted {
			continue
		}
		if e.Type != entity.TransactionTypeIn && e.Type != entity.TransactionTypeOut {
			continue
		}
		u, ok := totals[e.MaterialID]
		if !ok {
			u = &usage{materialID: e.MaterialID, total: decimal.Zero}
			totals[e.MaterialID] = u
			order = append(order, u)
		}
		u.total = u.total.Add(e.TotalValue)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].total.GreaterThan(order[j].total)
	})

	grand := decimal.Zero
	for _, u := range order {
		grand = grand.Add(u.total)
	}

	items := make([]dto.ABCItemDTO, 0, len(order))
	cumulative := decimal.Zero
	for _, u := range order {
		cumulative = cumulative.Add(u.total)
		valuePct, cumPct := decimal.Zero, decimal.Zero
		if grand.GreaterThan(decimal.Zero) {
			valuePct = u.total.Div(grand).Mul(hundred)
			cumPct = cumulative.Div(grand).Mul(hundred)
		}
		class := "C"
		switch {
		case cumPct.LessThanOrEqual(abcCutA):
			class = "A"
		case cumPct.LessThanOrEqual(abcCutB):
			class = "B"
		}
		item := dto.ABCItemDTO{
			MaterialID:    u.materialID,
			TotalValue:    u.total,
			ValuePct:      valuePct,
			CumulativePct: cumPct,
			Class:         class,
		}
		if m, ok := materials[u.materialID]; ok {
			item.Code = m.Code
			item.Name = m.Name
			item.Category = m.Category
			item.CurrentStock = m.Quantity
		}
		items = append(items, item)
	}

	summary := make([]dto.ABCClassSummaryDTO, 0, 3)
	for _, class := range []string{"A", "B", "C"} {
		s := dto.ABCClassSummaryDTO{Class: class, TotalValue: decimal.Zero, Percentage: decimal.Zero}
		for _, it := range items {
			if it.Class == class {
				s.Count++
				s.TotalValue = s.TotalValue.Add(it.TotalValue)
			}
		}
		if grand.GreaterThan(decimal.Zero) {
			s.Percentage = s.TotalValue.Div(grand).Mul(hundred)
		}
		summary = append(summary, s)
	}
	return items, summary
}

// buildCostGroups agrupa costo (entradas) y ventas (salidas) por la clave
// indicada y deriva neto y margen. Con revenue cero el margen es exactamente
// cero, nunca una división inválida.
func buildCostGroups(keyOf func(*entity.Transaction) string, entries []*entity.Transaction) []dto.CostGroupDTO {
	groups := map[string]*dto.CostGroupDTO{}
	var order []string
	for _, e := range entries {
		if e.Status != entity.TransactionStatusCompleted {
			continue
		}
		if e.Type != entity.TransactionTypeIn && e.Type != entity.TransactionTypeOut {
			continue
		}
		key := keyOf(e)
		g, ok := groups[key]
		if !ok {
			g = &dto.CostGroupDTO{
				Group:    key,
				Cost:     decimal.Zero,
				Revenue:  decimal.Zero,
				NetValue: decimal.Zero,
			}
			groups[key] = g
			order = append(order, key)
		}
		g.TxCount++
		if e.Type == entity.TransactionTypeIn {
			g.Cost = g.Cost.Add(e.TotalValue)
		} else {
			g.Revenue = g.Revenue.Add(e.TotalValue)
		}
	}

	out := make([]dto.CostGroupDTO, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.NetValue = g.Revenue.Sub(g.Cost)
		if g.Revenue.GreaterThan(decimal.Zero) {
			g.MarginPct = g.NetValue.Div(g.Revenue).Mul(hundred)
		} else {
			g.MarginPct = decimal.Zero
		}
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost.GreaterThan(out[j].Cost)
	})
	return out
}

// buildMonthlyTrend acumula el gasto en entradas por año-mes, ascendente.
func buildMonthlyTrend(entries []*entity.Transaction) []dto.MonthlyTrendDTO {
	type ym struct{ year, month int }
	totals := map[ym]*dto.MonthlyTrendDTO{}
	for _, e := range entries {
		if e.Status != entity.TransactionStatusCompleted || e.Type != entity.TransactionTypeIn {
			continue
		}
		k := ym{e.Date.Year(), int(e.Date.Month())}
		t, ok := totals[k]
		if !ok {
			t = &dto.MonthlyTrendDTO{Year: k.year, Month: k.month, TotalSpent: decimal.Zero}
			totals[k] = t
		}
		t.TxCount++
		t.TotalSpent = t.TotalSpent.Add(e.TotalValue)
	}
	out := make([]dto.MonthlyTrendDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// buildTopMaterials devuelve los materiales con mayor valor de salidas.
func buildTopMaterials(materials map[string]*entity.Material, entries []*entity.Transaction, limit int) []dto.TopMaterialDTO {
	totals := map[string]*dto.TopMaterialDTO{}
	var order []string
	for _, e := range entries {
		if e.Status != entity.TransactionStatusCompleted || e.Type != entity.TransactionTypeOut {
			continue
		}
		t, ok := totals[e.MaterialID]
		if !ok {
			t = &dto.TopMaterialDTO{MaterialID: e.MaterialID, TotalQuantity: decimal.Zero, TotalValue: decimal.Zero}
			if m, mok := materials[e.MaterialID]; mok {
				t.Code = m.Code
				t.Name = m.Name
			}
			totals[e.MaterialID] = t
			order = append(order, e.MaterialID)
		}
		t.TxCount++
		t.TotalQuantity = t.TotalQuantity.Add(e.AbsQuantity())
		t.TotalValue = t.TotalValue.Add(e.TotalValue)
	}
	out := make([]dto.TopMaterialDTO, 0, len(order))
	for _, k := range order {
		out = append(out, *totals[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue.GreaterThan(out[j].TotalValue)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
