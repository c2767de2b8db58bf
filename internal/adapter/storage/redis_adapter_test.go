package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rl1809/marketplace/internal/port"
)

func TestRedisTransfer_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	buyer, seller := testIdentity(41), testIdentity(42)

	// Setup
	client.Del(ctx, balanceKeyPrefix+buyer.String(), balanceKeyPrefix+seller.String())
	adapter.Deposit(ctx, buyer, 10)

	// Test
	if err := adapter.Transfer(ctx, buyer, seller, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify
	if balance, _ := adapter.Balance(ctx, buyer); balance != 7 {
		t.Errorf("expected buyer balance 7, got %d", balance)
	}
	if balance, _ := adapter.Balance(ctx, seller); balance != 3 {
		t.Errorf("expected seller balance 3, got %d", balance)
	}
}

func TestRedisTransfer_InsufficientFunds(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	buyer, seller := testIdentity(43), testIdentity(44)

	// Setup
	client.Del(ctx, balanceKeyPrefix+buyer.String(), balanceKeyPrefix+seller.String())
	adapter.Deposit(ctx, buyer, 5)

	// Test - try to move more than available
	err := adapter.Transfer(ctx, buyer, seller, 10)
	if err == nil {
		t.Fatal("expected insufficient funds")
	}

	// Verify balances unchanged
	if balance, _ := adapter.Balance(ctx, buyer); balance != 5 {
		t.Errorf("expected buyer balance 5, got %d", balance)
	}
	if balance, _ := adapter.Balance(ctx, seller); balance != 0 {
		t.Errorf("expected seller balance 0, got %d", balance)
	}
}

func TestRedisTransfer_BeyondFloatPrecision(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	buyer, seller := testIdentity(47), testIdentity(48)

	// Setup - 2^53 and 2^53+1 are the same float64
	client.Del(ctx, balanceKeyPrefix+buyer.String(), balanceKeyPrefix+seller.String())
	adapter.Deposit(ctx, buyer, 1<<53)

	// Test
	err := adapter.Transfer(ctx, buyer, seller, 1<<53+1)
	if !errors.Is(err, port.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// Verify
	if balance, err := adapter.Balance(ctx, buyer); err != nil || balance != 1<<53 {
		t.Errorf("expected buyer balance %d, got %d (%v)", uint64(1<<53), balance, err)
	}
	if balance, _ := adapter.Balance(ctx, seller); balance != 0 {
		t.Errorf("expected seller balance 0, got %d", balance)
	}
}

func TestRedisTransfer_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	buyer, seller := testIdentity(45), testIdentity(46)

	initialBalance := 20
	totalRequests := 50

	// Setup
	client.Del(ctx, balanceKeyPrefix+buyer.String(), balanceKeyPrefix+seller.String())
	adapter.Deposit(ctx, buyer, uint64(initialBalance))

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := adapter.Transfer(ctx, buyer, seller, 1); err == nil {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != int32(initialBalance) {
		t.Errorf("expected %d successes, got %d", initialBalance, successCount.Load())
	}
	if balance, _ := adapter.Balance(ctx, buyer); balance != 0 {
		t.Errorf("expected buyer balance 0, got %d", balance)
	}
}

func TestRedisSetIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)

	// Setup
	client.Del(ctx, "test-idem-key")

	// First call should succeed
	ok, err := adapter.SetIdempotency(ctx, "test-idem-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first call to succeed")
	}

	// Second call should fail (key exists)
	ok, _ = adapter.SetIdempotency(ctx, "test-idem-key")
	if ok {
		t.Error("expected second call to fail")
	}

	// Released key can be taken again
	if err := adapter.ReleaseIdempotency(ctx, "test-idem-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ = adapter.SetIdempotency(ctx, "test-idem-key")
	if !ok {
		t.Error("expected call after release to succeed")
	}
	client.Del(ctx, "test-idem-key")
}
