// Package main is the entry point for the catstock API server: a stock
// ledger and transaction engine for a paint store inventory.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/DaffaHM/catstock-sub003/internal/core/tx"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
	v1 "github.com/DaffaHM/catstock-sub003/internal/infrastructure/http/v1"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/memory"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres/document_repo"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres/register_repo"
	"github.com/DaffaHM/catstock-sub003/pkg/logger"
	"github.com/DaffaHM/catstock-sub003/pkg/refnum"
)

// services is the wired application core, identical for both backends.
type services struct {
	products     *product.Service
	suppliers    *supplier.Service
	transactions *transaction.Service
	stock        *stock.Service
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	storage := getEnv("STORAGE_DRIVER", "postgres")
	log.Infow("starting catstock server", "storage", storage)

	var (
		svcs *services
		pool *postgres.Pool
	)

	switch storage {
	case "postgres":
		dsn := mustEnv("DATABASE_URL")

		if err := postgres.Migrate(ctx, dsn); err != nil {
			log.Fatalw("migrations failed", "error", err)
		}

		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		svcs = buildPostgresServices(pool)

	case "memory":
		// Demo mode: full engine semantics, nothing persisted.
		svcs = buildMemoryServices()
		log.Info("running on in-memory storage, data will not survive restart")

	default:
		log.Fatalw("unknown storage driver", "driver", storage)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Pool:         pool,
		Products:     svcs.products,
		Suppliers:    svcs.suppliers,
		Transactions: svcs.transactions,
		Stock:        svcs.stock,
	})

	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func buildPostgresServices(pool *postgres.Pool) *services {
	txManager := postgres.NewTxManager(pool)

	productRepo := catalog_repo.NewProductRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	transactionRepo := document_repo.NewTransactionRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	refs := refnum.New(&querierAdapter{txManager})

	return wire(txManager, productRepo, supplierRepo, transactionRepo, stockRepo, refs)
}

func buildMemoryServices() *services {
	store := memory.NewStore()
	txManager := memory.NewTxManager(store)

	return wire(
		txManager,
		memory.NewProductRepo(store),
		memory.NewSupplierRepo(store),
		memory.NewTransactionRepo(store),
		memory.NewStockRepo(store),
		refnum.NewMemory(),
	)
}

func wire(
	txManager tx.Manager,
	productRepo product.Repository,
	supplierRepo supplier.Repository,
	transactionRepo transaction.Repository,
	stockRepo stock.Repository,
	refs refnum.Generator,
) *services {
	productService := product.NewService(productRepo, txManager)
	supplierService := supplier.NewService(supplierRepo, txManager)
	stockService := stock.NewService(stockRepo, productRepo)
	transactionService := transaction.NewService(
		transactionRepo, productRepo, supplierRepo, stockService, refs, txManager,
	)

	return &services{
		products:     productService,
		suppliers:    supplierService,
		transactions: transactionService,
		stock:        stockService,
	}
}

// querierAdapter routes reference sequence queries through the tx manager.
// Allocation happens before the commit transaction opens, so these run on
// the pool and the sequence row lock is released immediately.
type querierAdapter struct {
	txm *postgres.TxManager
}

func (a *querierAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
