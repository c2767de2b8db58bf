package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// Mock ItemRepository
type mockItemRepo struct {
	items     map[uint64]domain.Item
	updateErr error
	mu        sync.Mutex
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[uint64]domain.Item)}
}

func (m *mockItemRepo) CreateItem(ctx context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; ok {
		return port.ErrItemExists
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepo) GetItem(ctx context.Context, id uint64) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, port.ErrItemNotFound
	}
	return &item, nil
}

func (m *mockItemRepo) UpdateItem(ctx context.Context, item domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	current, ok := m.items[item.ID]
	if !ok {
		return port.ErrItemNotFound
	}
	if current.Version != item.Version {
		return port.ErrOptimisticLock
	}
	item.Version++
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepo) DeleteItem(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return port.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepo) ListItems(ctx context.Context) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	return items, nil
}

func (m *mockItemRepo) quantity(id uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Quantity
}

// Mock BalanceRepository
type mockWallet struct {
	balances map[domain.Identity]uint64
	mu       sync.Mutex
}

func newMockWallet() *mockWallet {
	return &mockWallet{balances: make(map[domain.Identity]uint64)}
}

func (m *mockWallet) Transfer(ctx context.Context, from, to domain.Identity, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[from] < amount {
		return port.ErrInsufficientFunds
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *mockWallet) Deposit(ctx context.Context, owner domain.Identity, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[owner] += amount
	return nil
}

func (m *mockWallet) Balance(ctx context.Context, owner domain.Identity) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[owner], nil
}

// Mock IdempotencyRepository
type mockIdempotency struct {
	keys map[string]bool
	mu   sync.Mutex
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{keys: make(map[string]bool)}
}

func (m *mockIdempotency) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockIdempotency) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

// Mock ReceiptRepository
type mockReceiptRepo struct {
	receipts []domain.Receipt
	saveErr  error
	mu       sync.Mutex
}

func (m *mockReceiptRepo) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.receipts = append(m.receipts, receipt)
	return nil
}

func (m *mockReceiptRepo) ListReceipts(ctx context.Context, itemID uint64) ([]domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Receipt
	for _, r := range m.receipts {
		if r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReceiptRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receipts)
}

var errStorage = errors.New("storage unavailable")

func identity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

var (
	authority = identity(1)
	buyer     = identity(2)
	stranger  = identity(3)
)

func drain(svc *LedgerService) {
	go func() {
		for range svc.GetReceiptQueue() {
		}
	}()
}
