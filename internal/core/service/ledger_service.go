package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.jetify.com/typeid/v2"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

const (
	lockStripes   = 64
	receiptPrefix = "rcpt"
)

// LedgerService runs the item operations. Mutations of one item are serialized;
// every operation either completes or leaves the record untouched.
type LedgerService struct {
	items       port.ItemRepository
	payments    port.PaymentGateway
	idempotency port.IdempotencyRepository
	receipts    port.ReceiptRepository
	logger      *zap.Logger
	now         func() time.Time

	locks [lockStripes]sync.Mutex

	mu           sync.RWMutex
	closed       bool
	receiptQueue chan domain.Receipt
}

type Option func(*LedgerService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *LedgerService) { s.logger = logger }
}

func WithIdempotency(repo port.IdempotencyRepository) Option {
	return func(s *LedgerService) { s.idempotency = repo }
}

func WithReceipts(repo port.ReceiptRepository) Option {
	return func(s *LedgerService) { s.receipts = repo }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(items port.ItemRepository, payments port.PaymentGateway, queueSize int, opts ...Option) *LedgerService {
	s := &LedgerService{
		items:        items,
		payments:     payments,
		logger:       zap.NewNop(),
		now:          time.Now,
		receiptQueue: make(chan domain.Receipt, queueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PurchaseRequest carries the inputs of a purchase. Seller is the payment destination
// named by the buyer and must match the item authority.
type PurchaseRequest struct {
	RequestID string
	ItemID    uint64
	Quantity  uint64
	Buyer     domain.Identity
	Seller    domain.Identity
}

func (s *LedgerService) Create(ctx context.Context, signer domain.Identity, id uint64, name string, quantity, price uint64) (*domain.Item, error) {
	if err := checkPrice(price); err != nil {
		return nil, err
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := s.lock(id)
	defer unlock()

	now := s.now()
	item := domain.Item{
		ID:        id,
		Name:      name,
		Quantity:  quantity,
		Price:     price,
		Authority: signer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info("created item", zap.Uint64("item_id", id))
	return &item, nil
}

func (s *LedgerService) UpdateQuantity(ctx context.Context, signer domain.Identity, id, quantity uint64) (*domain.Item, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := s.lock(id)
	defer unlock()

	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if err := checkAuthority(*item, signer); err != nil {
		return nil, err
	}

	item.Quantity = quantity
	item.UpdatedAt = s.now()
	if err := s.items.UpdateItem(ctx, *item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.logger.Info("updated quantity", zap.Uint64("item_id", id), zap.Uint64("quantity", quantity))
	return item, nil
}

func (s *LedgerService) Purchase(ctx context.Context, req PurchaseRequest) (*domain.Receipt, error) {
	if err := checkQuantity(req.Quantity); err != nil {
		return nil, err
	}

	idempotencyKey := fmt.Sprintf("purchase:%s:%s", req.Buyer, req.RequestID)
	if req.RequestID != "" && s.idempotency != nil {
		ok, err := s.idempotency.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	receipt, err := s.purchase(ctx, req)
	if err != nil {
		if req.RequestID != "" && s.idempotency != nil {
			if releaseErr := s.idempotency.ReleaseIdempotency(context.WithoutCancel(ctx), idempotencyKey); releaseErr != nil {
				s.logger.Warn("release idempotency key", zap.String("request_id", req.RequestID), zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	s.publish(ctx, *receipt)
	return receipt, nil
}

func (s *LedgerService) purchase(ctx context.Context, req PurchaseRequest) (*domain.Receipt, error) {
	unlock := s.lock(req.ItemID)
	defer unlock()

	item, err := s.items.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if err := checkAvailable(item.Quantity, req.Quantity); err != nil {
		return nil, err
	}
	if err := checkAuthority(*item, req.Seller); err != nil {
		return nil, err
	}
	total, err := totalPrice(item.Price, req.Quantity)
	if err != nil {
		return nil, err
	}

	receiptID, err := typeid.Generate(receiptPrefix)
	if err != nil {
		return nil, fmt.Errorf("generate receipt id: %w", err)
	}

	if err := s.payments.Transfer(ctx, req.Buyer, item.Authority, total); err != nil {
		return nil, fmt.Errorf("payment transfer: %w", err)
	}

	remaining, err := remainingQuantity(item.Quantity, req.Quantity)
	if err != nil {
		s.refund(ctx, req, item.Authority, total)
		return nil, err
	}

	now := s.now()
	item.Quantity = remaining
	item.UpdatedAt = now
	if err := s.items.UpdateItem(ctx, *item); err != nil {
		s.refund(ctx, req, item.Authority, total)
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.logger.Info("purchased item",
		zap.Uint64("quantity", req.Quantity),
		zap.Uint64("item_id", item.ID),
		zap.Uint64("total", total),
	)

	return &domain.Receipt{
		ID:        receiptID.String(),
		RequestID: req.RequestID,
		ItemID:    item.ID,
		Buyer:     req.Buyer,
		Seller:    item.Authority,
		Quantity:  req.Quantity,
		Total:     total,
		Remaining: remaining,
		CreatedAt: now,
	}, nil
}

// refund reverses a settled transfer when the record could not be written.
func (s *LedgerService) refund(ctx context.Context, req PurchaseRequest, seller domain.Identity, total uint64) {
	if err := s.payments.Transfer(context.WithoutCancel(ctx), seller, req.Buyer, total); err != nil {
		s.logger.Error("CRITICAL refund failed",
			zap.Uint64("item_id", req.ItemID),
			zap.String("request_id", req.RequestID),
			zap.Uint64("total", total),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("refunded purchase", zap.Uint64("item_id", req.ItemID), zap.Uint64("total", total))
}

func (s *LedgerService) Delete(ctx context.Context, signer domain.Identity, id uint64) error {
	unlock := s.lock(id)
	defer unlock()

	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if err := checkAuthority(*item, signer); err != nil {
		return err
	}
	if err := s.items.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.logger.Info("deleted item", zap.Uint64("item_id", id))
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id uint64) (*domain.Item, error) {
	item, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *LedgerService) List(ctx context.Context) ([]domain.Item, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (s *LedgerService) Receipts(ctx context.Context, itemID uint64) ([]domain.Receipt, error) {
	if s.receipts == nil {
		return nil, nil
	}
	receipts, err := s.receipts.ListReceipts(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return receipts, nil
}

func (s *LedgerService) GetReceiptQueue() <-chan domain.Receipt {
	return s.receiptQueue
}

func (s *LedgerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.receiptQueue)
	}
}

func (s *LedgerService) publish(ctx context.Context, receipt domain.Receipt) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("receipt queue closed", zap.String("receipt_id", receipt.ID))
		return
	}
	select {
	case s.receiptQueue <- receipt:
	case <-ctx.Done():
		s.logger.Warn("receipt dropped", zap.String("receipt_id", receipt.ID), zap.Error(ctx.Err()))
	}
}

func (s *LedgerService) lock(id uint64) func() {
	m := &s.locks[id%lockStripes]
	m.Lock()
	return m.Unlock
}
