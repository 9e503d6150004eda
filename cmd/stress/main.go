// Command stress hammers one inventory item with concurrent usage
// movements and verifies the balance never went negative and the
// ledger reconciles.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantum/stock-ledger/internal/adapter/storage"
	"github.com/quantum/stock-ledger/internal/config"
	"github.com/quantum/stock-ledger/internal/core/domain"
	"github.com/quantum/stock-ledger/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
	queueSize     = 1000
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	movements := service.NewMovementService(mysqlAdapter, redisAdapter, queueSize, logger)
	defer movements.Close()

	// Drain the event queue in background
	go func() {
		for range movements.Events() {
		}
	}()

	inventory := service.NewInventoryService(mysqlAdapter, redisAdapter, logger)
	item, err := inventory.CreateItem(ctx, uuid.New(), domain.InventoryItem{
		Name:     "stress-test-item",
		Category: "test",
		Unit:     "unit",
		Quantity: decimal.NewFromInt(initialStock),
	})
	if err != nil {
		log.Fatalf("failed to seed item: %v", err)
	}

	var successCount, insufficientCount, conflictCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	one := decimal.NewFromInt(1)
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := movements.RecordUsage(ctx, item.ID, one, "stress test usage")
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, service.ErrInsufficientStock):
				insufficientCount.Add(1)
			case errors.Is(err, service.ErrConflict):
				conflictCount.Add(1)
			default:
				log.Printf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := inventory.GetItem(ctx, item.ID)
	if err != nil {
		log.Fatalf("failed to reload item: %v", err)
	}

	entries, err := movements.ListTransactions(ctx, item.ID)
	if err != nil {
		log.Fatalf("failed to list transactions: %v", err)
	}
	sum := decimal.NewFromInt(initialStock)
	for _, entry := range entries {
		sum = sum.Add(entry.Delta)
	}

	log.Printf("requests=%d success=%d insufficient=%d conflict=%d elapsed=%s",
		totalRequests, successCount.Load(), insufficientCount.Load(), conflictCount.Load(), elapsed)
	log.Printf("final balance=%s ledger sum=%s entries=%d", final.Quantity, sum, len(entries))

	if final.Quantity.Sign() < 0 {
		log.Fatal("FAIL: balance went negative")
	}
	if !final.Quantity.Equal(sum) {
		log.Fatalf("FAIL: balance %s does not reconcile with ledger sum %s", final.Quantity, sum)
	}
	log.Print("OK: balance non-negative and ledger reconciles")
}
