package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

const receiptSaveTimeout = 5 * time.Second

// RunReceiptWorker persists receipts until the queue is closed.
func RunReceiptWorker(id int, queue <-chan domain.Receipt, repo port.ReceiptRepository, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for receipt := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), receiptSaveTimeout)

		if err := repo.SaveReceipt(ctx, receipt); err != nil {
			logger.Error("failed to save receipt",
				zap.Int("worker", id),
				zap.String("receipt_id", receipt.ID),
				zap.Error(err),
			)
		} else {
			logger.Debug("saved receipt", zap.Int("worker", id), zap.String("receipt_id", receipt.ID))
		}

		cancel()
	}
}
