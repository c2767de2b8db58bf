package port

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
)

type ReceiptRepository interface {
	SaveReceipt(ctx context.Context, receipt domain.Receipt) error

	// ListReceipts returns receipts for an item, newest first
	ListReceipts(ctx context.Context, itemID uint64) ([]domain.Receipt, error)
}
