package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// WalletService exposes the balances behind the payment gateway.
type WalletService struct {
	balances port.BalanceRepository
	logger   *zap.Logger
}

func NewWalletService(balances port.BalanceRepository, logger *zap.Logger) *WalletService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{balances: balances, logger: logger}
}

func (s *WalletService) Deposit(ctx context.Context, owner domain.Identity, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	if err := s.balances.Deposit(ctx, owner, amount); err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}

	balance, err := s.balances.Balance(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}

	s.logger.Info("deposited funds", zap.Stringer("owner", owner), zap.Uint64("amount", amount))
	return balance, nil
}

func (s *WalletService) Balance(ctx context.Context, owner domain.Identity) (uint64, error) {
	balance, err := s.balances.Balance(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("balance: %w", err)
	}
	return balance, nil
}
