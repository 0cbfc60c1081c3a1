package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/material-stock/internal/application/analytics"
	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

const defaultWindowDays = 90

// ReportHandler maneja los reportes de solo lectura (protegido).
type ReportHandler struct {
	uc *analytics.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *analytics.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// StockValuation godoc
// @Summary      Valorización del stock actual
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        category     query  string  false  "Filtrar por categoría"
// @Param        status       query  string  false  "active (defecto), inactive, discontinued, all"
// @Param        stock_level  query  string  false  "Filtrar por nivel de stock"
// @Success      200  {object}  dto.ValuationReportDTO
// @Router       /api/reports/stock-valuation [get]
func (h *ReportHandler) StockValuation(c *fiber.Ctx) error {
	report, err := h.uc.StockValuation(c.Context(), analytics.ValuationFilter{
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		StockLevel: c.Query("stock_level"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Transactions godoc
// @Summary      Reporte de movimientos con totales por tipo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  false  "Filtrar por material"
// @Param        type         query  string  false  "Filtrar por tipo"
// @Param        from         query  string  false  "Fecha inicial (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Fecha final"
// @Success      200  {object}  dto.TransactionReportDTO
// @Router       /api/reports/transactions [get]
func (h *ReportHandler) Transactions(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		MaterialID: c.Query("material_id"),
		Type:       c.Query("type"),
		Status:     c.Query("status"),
	}
	if from, err := parseDate(c.Query("from")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha 'from' inválida"})
	} else if from != nil {
		filter.From = from
	}
	if to, err := parseDate(c.Query("to")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha 'to' inválida"})
	} else if to != nil {
		filter.To = to
	}
	report, err := h.uc.TransactionReport(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ABCAnalysis godoc
// @Summary      Clasificación ABC por valor de actividad en la ventana
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        window_days  query  int  false  "Ventana en días (defecto 90)"
// @Success      200  {object}  dto.ABCReportDTO
// @Router       /api/reports/abc-analysis [get]
func (h *ReportHandler) ABCAnalysis(c *fiber.Ctx) error {
	report, err := h.uc.ABCAnalysis(c.Context(), c.QueryInt("window_days", defaultWindowDays))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// CostAnalysis godoc
// @Summary      Costo contra salidas agrupado por categoría, proveedor o material
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        window_days  query  int     false  "Ventana en días (defecto 90)"
// @Param        group_by     query  string  false  "category (defecto), supplier, material"
// @Success      200  {object}  dto.CostReportDTO
// @Router       /api/reports/cost-analysis [get]
func (h *ReportHandler) CostAnalysis(c *fiber.Ctx) error {
	groupBy := c.Query("group_by", analytics.GroupByCategory)
	report, err := h.uc.CostAnalysis(c.Context(), c.QueryInt("window_days", defaultWindowDays), groupBy)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Dashboard godoc
// @Summary      Resumen del estado del stock y actividad de hoy y del mes
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardSummaryDTO
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	report, err := h.uc.DashboardSummary(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
