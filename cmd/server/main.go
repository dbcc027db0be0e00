package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/vbarbosa/retail-pos/internal/adapter/handler"
	"github.com/vbarbosa/retail-pos/internal/adapter/storage"
	"github.com/vbarbosa/retail-pos/internal/config"
	"github.com/vbarbosa/retail-pos/internal/core/service"
	"github.com/vbarbosa/retail-pos/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Info("connected to mysql")

	// Initialize Redis (optional duplicate-submission guard)
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		cache = storage.NewRedisAdapter(rdb)
		log.Info("connected to redis")
	} else {
		log.Warn("REDIS_ADDR not set, duplicate-submission guard disabled")
	}

	// Initialize adapters and services
	gw := storage.NewGateway(db)
	catalogRepo := storage.NewMySQLCatalog(gw)
	salesRepo := storage.NewMySQLSales(gw)
	customerRepo := storage.NewMySQLCustomers(gw)

	saleService := service.NewSaleService(catalogRepo, salesRepo, cache)
	catalogService := service.NewCatalogService(catalogRepo, customerRepo, salesRepo)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(saleService, catalogService, log)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info("HTTP server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Info("connections closed")
}
