package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/auth"
	"github.com/rl1809/marketplace/internal/core/service"
)

const (
	itemID        = 1
	itemPrice     = 10
	initialStock  = 20
	totalRequests = 50
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	// Initialize in-memory store
	db, err := storage.OpenSQL(ctx, storage.DialectSQLite, ":memory:")
	if err != nil {
		log.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	store := storage.NewSQLAdapter(db, storage.DialectSQLite)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	seller, _, err := auth.GenerateKey()
	if err != nil {
		log.Fatalf("failed to generate seller key: %v", err)
	}
	buyer, _, err := auth.GenerateKey()
	if err != nil {
		log.Fatalf("failed to generate buyer key: %v", err)
	}
	if err := store.Deposit(ctx, buyer, totalRequests*itemPrice); err != nil {
		log.Fatalf("failed to fund buyer: %v", err)
	}

	// Initialize service
	ledger := service.NewLedgerService(store, store, queueSize,
		service.WithIdempotency(storage.NewMemoryIdempotency(time.Hour)),
	)
	defer ledger.Close()

	// Drain the receipt queue in background
	go func() {
		for range ledger.GetReceiptQueue() {
		}
	}()

	if _, err := ledger.Create(ctx, seller, itemID, "stress-item", initialStock, itemPrice); err != nil {
		log.Fatalf("failed to create item: %v", err)
	}

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := ledger.Purchase(ctx, service.PurchaseRequest{
				RequestID: uuid.NewString(),
				ItemID:    itemID,
				Quantity:  1,
				Buyer:     buyer,
				Seller:    seller,
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	ok := true
	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d purchases succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
		ok = false
	}

	// Verify final stock and seller balance
	item, err := ledger.Get(ctx, itemID)
	if err != nil {
		log.Fatalf("failed to read item: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", item.Quantity)
	if item.Quantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", item.Quantity)
		ok = false
	}

	earned, err := store.Balance(ctx, seller)
	if err != nil {
		log.Fatalf("failed to read seller balance: %v", err)
	}
	if earned == initialStock*itemPrice {
		fmt.Printf("PASS: Seller received %d\n", earned)
	} else {
		fmt.Printf("FAIL: Expected seller balance %d, got %d\n", initialStock*itemPrice, earned)
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
}
