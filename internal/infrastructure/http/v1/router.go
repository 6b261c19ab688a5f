// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/http/v1/handlers"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/http/v1/middleware"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres"
	"github.com/DaffaHM/catstock-sub003/pkg/logger"
)

// RouterConfig holds the wired services the API exposes.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Pool for health checks; nil when running on the memory backend
	Pool *postgres.Pool

	Products     *product.Service
	Suppliers    *supplier.Service
	Transactions *transaction.Service
	Stock        *stock.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		// --- PRODUCTS ---
		// SKU lookup lives on its own path: a static "sku" segment next
		// to the ":id" wildcard would conflict in gin's route tree.
		productHandler := handlers.NewProductHandler(baseHandler, cfg.Products)
		RegisterCatalogRoutes(api.Group("/products"), productHandler)
		api.GET("/skus/:sku", productHandler.GetBySKU)

		// --- SUPPLIERS ---
		supplierHandler := handlers.NewSupplierHandler(baseHandler, cfg.Suppliers)
		RegisterCatalogRoutes(api.Group("/suppliers"), supplierHandler)

		// --- TRANSACTIONS ---
		transactionHandler := handlers.NewTransactionHandler(baseHandler, cfg.Transactions)
		transactions := api.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.POST("", transactionHandler.Create)
			transactions.GET("/:id", transactionHandler.Get)
		}
		api.GET("/references/:reference", transactionHandler.GetByReference)

		// --- STOCK ---
		stockHandler := handlers.NewStockHandler(baseHandler, cfg.Stock)
		stockGroup := api.Group("/stock")
		{
			stockGroup.GET("", stockHandler.GetSummary)
			stockGroup.GET("/:productId", stockHandler.GetCurrentStock)
			stockGroup.GET("/:productId/movements", stockHandler.GetMovements)
			stockGroup.GET("/:productId/integrity", stockHandler.VerifyIntegrity)
			stockGroup.GET("/:productId/availability", stockHandler.CheckAvailability)
			stockGroup.POST("/:productId/adjustment", stockHandler.CalculateAdjustment)
		}
		// Batch level query keeps its own path, same wildcard-conflict
		// reasoning as the SKU lookup above.
		api.POST("/stock-levels", stockHandler.GetLevels)
	}

	return router
}
