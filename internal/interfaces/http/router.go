package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/material-stock/internal/application/analytics"
	"github.com/tu-usuario/material-stock/internal/application/material"
	"github.com/tu-usuario/material-stock/internal/application/stock"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
	"github.com/tu-usuario/material-stock/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MaterialUC *material.MaterialUseCase
	StockUC    *stock.StockUseCase
	ReportUC   *analytics.ReportUseCase
	TxRepo     repository.TransactionRepository
	JWTSecret  string
	Log        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Materiales (protegido)
	materials := protected.Group("/materials")
	materialHandler := NewMaterialHandler(deps.MaterialUC, deps.StockUC, deps.Log)
	materials.Post("/", materialHandler.Create)
	materials.Get("/", materialHandler.List)
	materials.Get("/alerts/low-stock", materialHandler.LowStockAlerts)
	materials.Get("/meta/categories", materialHandler.Categories)
	materials.Get("/:id", materialHandler.Get)
	materials.Put("/:id", materialHandler.Update)
	materials.Delete("/:id", materialHandler.Delete)

	// Mutaciones de stock por material (protegido)
	stockHandler := NewStockHandler(deps.StockUC, deps.TxRepo)
	materials.Post("/:id/stock-in", stockHandler.StockIn)
	materials.Post("/:id/stock-out", stockHandler.StockOut)
	materials.Post("/:id/stock-adjustment", stockHandler.Adjustment)

	// Ledger de transacciones (protegido)
	transactions := protected.Group("/transactions")
	transactions.Get("/", stockHandler.ListTransactions)
	transactions.Get("/:id", stockHandler.GetTransaction)
	transactions.Post("/:id/cancel", stockHandler.Cancel)

	// Reportes (protegido)
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/stock-valuation", reportHandler.StockValuation)
	reports.Get("/transactions", reportHandler.Transactions)
	reports.Get("/abc-analysis", reportHandler.ABCAnalysis)
	reports.Get("/cost-analysis", reportHandler.CostAnalysis)
	reports.Get("/dashboard", reportHandler.Dashboard)
}
