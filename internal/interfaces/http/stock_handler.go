package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/material-stock/internal/application/dto"
	"github.com/tu-usuario/material-stock/internal/application/stock"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

// StockHandler maneja las mutaciones de stock y la consulta del ledger (protegido).
type StockHandler struct {
	uc     *stock.StockUseCase
	txRepo repository.TransactionRepository
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.StockUseCase, txRepo repository.TransactionRepository) *StockHandler {
	return &StockHandler{uc: uc, txRepo: txRepo}
}

// StockIn godoc
// @Summary      Entrada de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del material"
// @Param        body  body  dto.ReceiveStockRequest  true  "quantity, reference; unit_price opcional"
// @Success      201   {object}  dto.StockOperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/stock-in [post]
func (h *StockHandler) StockIn(c *fiber.Ctx) error {
	var in dto.ReceiveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Receive(c.Context(), actor(c), stock.ReceiveInput{
		MaterialID:  c.Params("id"),
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Reference:   in.Reference,
		Description: in.Description,
		Supplier:    in.Supplier,
		Project:     in.Project,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(res))
}

// StockOut godoc
// @Summary      Salida de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del material"
// @Param        body  body  dto.IssueStockRequest  true  "quantity, reference"
// @Success      201   {object}  dto.StockOperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/stock-out [post]
func (h *StockHandler) StockOut(c *fiber.Ctx) error {
	var in dto.IssueStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Issue(c.Context(), actor(c), stock.IssueInput{
		MaterialID:  c.Params("id"),
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		Description: in.Description,
		Project:     in.Project,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(res))
}

// Adjustment godoc
// @Summary      Ajuste de stock con delta firmado y motivo obligatorio
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del material"
// @Param        body  body  dto.AdjustStockRequest  true  "delta, reason"
// @Success      201   {object}  dto.StockOperationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/materials/{id}/stock-adjustment [post]
func (h *StockHandler) Adjustment(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Adjust(c.Context(), actor(c), stock.AdjustInput{
		MaterialID: c.Params("id"),
		Delta:      in.Delta,
		Reason:     in.Reason,
		Reference:  in.Reference,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(res))
}

// Cancel godoc
// @Summary      Cancelar una transacción completada y revertir su efecto
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.StockOperationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/cancel [post]
func (h *StockHandler) Cancel(c *fiber.Ctx) error {
	res, err := h.uc.Cancel(c.Context(), actor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toStockResponse(res))
}

// ListTransactions godoc
// @Summary      Listar transacciones del ledger con filtros
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        material_id  query  string  false  "Filtrar por material"
// @Param        type         query  string  false  "in, out, adjustment, transfer, return"
// @Param        status       query  string  false  "pending, completed, cancelled, all"
// @Param        from         query  string  false  "Fecha inicial (RFC3339)"
// @Param        to           query  string  false  "Fecha final (RFC3339)"
// @Success      200  {object}  dto.TransactionListResponse
// @Router       /api/transactions [get]
func (h *StockHandler) ListTransactions(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	filter := repository.TransactionFilter{
		MaterialID: c.Query("material_id"),
		Type:       c.Query("type"),
		Status:     c.Query("status"),
		UserID:     c.Query("user_id"),
		Reference:  c.Query("reference"),
		Limit:      page.Limit,
		Offset:     page.Offset,
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

	entries, total, err := h.txRepo.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TransactionListResponse{
		Transactions: dto.FromTransactions(entries),
		Pagination:   dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	})
}

// GetTransaction godoc
// @Summary      Detalle de una transacción
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *StockHandler) GetTransaction(c *fiber.Ctx) error {
	entry, err := h.txRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromTransaction(entry))
}

func toStockResponse(res *stock.Result) dto.StockOperationResponse {
	return dto.StockOperationResponse{
		Material:        dto.FromMaterial(res.Material),
		Transaction:     dto.FromTransaction(res.Transaction),
		LowStockWarning: res.LowStockWarning,
	}
}

// parseDate acepta RFC3339 o fecha simple YYYY-MM-DD; cadena vacía = nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
