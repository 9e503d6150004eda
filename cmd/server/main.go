package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/quantum/stock-ledger/internal/adapter/events"
	"github.com/quantum/stock-ledger/internal/adapter/handler"
	"github.com/quantum/stock-ledger/internal/adapter/storage"
	"github.com/quantum/stock-ledger/internal/config"
	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/core/service"
	"github.com/quantum/stock-ledger/internal/port"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Initialize adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	publisher := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.MovementTopic)

	// Initialize services
	movementService := service.NewMovementService(mysqlAdapter, redisAdapter, cfg.EventQueueSize, logger)
	inventoryService := service.NewInventoryService(mysqlAdapter, redisAdapter, logger)
	receivingService := service.NewReceivingService(mysqlAdapter, mysqlAdapter, movementService, logger)
	fulfillmentService := service.NewFulfillmentService(movementService, mysqlAdapter, redisAdapter, logger)

	// Start event publisher workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			publishLoop(id, movementService.Events(), publisher, logger)
		}(i)
	}
	logger.Info("started event publisher workers", zap.Int("count", cfg.WorkerCount))

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(inventoryService, movementService, receivingService, fulfillmentService)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	// Close event queue and wait for publisher workers
	movementService.Close()
	wg.Wait()
	logger.Info("event publisher workers stopped")

	publisher.Close()
	rdb.Close()
	db.Close()
}

func publishLoop(id int, queue <-chan domain.StockEvent, publisher port.EventPublisher, logger *zap.Logger) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := publisher.Publish(ctx, event); err != nil {
			logger.Error("failed to publish stock event",
				zap.Int("worker", id),
				zap.String("item_id", event.ItemID.String()),
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}

		cancel()
	}
}
