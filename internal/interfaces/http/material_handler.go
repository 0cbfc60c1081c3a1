package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/application/material"
	"github.com/tu-usuario/material-stock/internal/application/stock"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
	"github.com/tu-usuario/material-stock/pkg/logger"
)

// MaterialHandler maneja las peticiones HTTP del registro de materiales (protegido).
type MaterialHandler struct {
	uc      *material.MaterialUseCase
	stockUC *stock.StockUseCase
	log     *logger.Logger
}

// NewMaterialHandler construye el handler.
func NewMaterialHandler(uc *material.MaterialUseCase, stockUC *stock.StockUseCase, log *logger.Logger) *MaterialHandler {
	return &MaterialHandler{uc: uc, stockUC: stockUC, log: log}
}

// Create godoc
// @Summary      Crear material
// @Tags         materials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMaterialRequest  true  "code, name, category, unit, quantity (stock inicial), min_stock, max_stock, unit_price"
// @Success      201   {object}  dto.MaterialDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/materials [post]
func (h *MaterialHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.uc.Create(c.Context(), actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	// La entrada INITIAL- del ledger se registra aparte; si falla, el material
	// ya existe y el fallo se reporta en logs, no al cliente.
	if _, err := h.stockUC.CreateInitialStock(c.Context(), actor(c), m); err != nil {
		h.log.Error().Err(err).Str("material", m.Code).Msg("no se pudo registrar el stock inicial en el ledger")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMaterial(m))
}

// List godoc
// @Summary      Listar materiales con filtros y resumen
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Param        category     query  string  false  "Filtrar por categoría"
// @Param        status       query  string  false  "active (defecto), inactive, discontinued, all"
// @Param        stock_level  query  string  false  "out_of_stock, low_stock, normal, overstock"
// @Param        search       query  string  false  "Busca en código, nombre y proveedor"
// @Success      200  {object}  dto.MaterialListResponse
// @Router       /api/materials [get]
func (h *MaterialHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	filter := repository.MaterialFilter{
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		StockLevel: c.Query("stock_level"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortDesc:   c.Query("sort_dir") == "desc",
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	res, err := h.uc.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Get godoc
// @Summary      Detalle de un material con sus últimos movimientos
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del material"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/materials/{id} [get]
func (h *MaterialHandler) Get(c *fiber.Ctx) error {
	m, recent, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"material":            dto.FromMaterial(m),
		"recent_transactions": dto.FromTransactions(recent),
	})
}

// Update godoc
// @Summary      Actualización parcial de un material (nunca la cantidad)
// @Tags         materials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del material"
// @Param        body  body  dto.UpdateMaterialRequest  true  "campos a actualizar"
// @Success      200   {object}  dto.MaterialDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/materials/{id} [put]
func (h *MaterialHandler) Update(c *fiber.Ctx) error {
	// El DTO no tiene campo quantity; se rechaza explícitamente en vez de
	// ignorarlo para que el cliente sepa que el stock solo cambia por movimientos.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if _, ok := raw["quantity"]; ok {
		return respondError(c, domain.Validationf("quantity", "la cantidad no se actualiza aquí: use los movimientos de stock"))
	}
	var in dto.UpdateMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromMaterial(m))
}

// Delete godoc
// @Summary      Eliminar material (soft por defecto; hard=true solo sin historial)
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del material"
// @Param        hard  query  bool    false  "true = borrado físico (rechazado con 409 si hay transacciones)"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/materials/{id} [delete]
func (h *MaterialHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if c.QueryBool("hard") {
		if err := h.uc.HardDelete(c.Context(), id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "material eliminado"})
	}
	if err := h.uc.SoftDelete(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "material desactivado"})
}

// LowStockAlerts godoc
// @Summary      Materiales activos con cantidad en o bajo el mínimo
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/materials/alerts/low-stock [get]
func (h *MaterialHandler) LowStockAlerts(c *fiber.Ctx) error {
	alerts, err := h.uc.LowStockAlerts(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.MaterialDTO, 0, len(alerts))
	for _, m := range alerts {
		items = append(items, dto.FromMaterial(m))
	}
	return c.JSON(fiber.Map{"total": len(items), "materials": items})
}

// Categories godoc
// @Summary      Categorías en uso con número de materiales activos
// @Tags         materials
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CategoryCountDTO
// @Router       /api/materials/meta/categories [get]
func (h *MaterialHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.uc.Categories(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cats)
}
