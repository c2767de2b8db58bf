package port

import (
	"context"
	"errors"

	"github.com/rl1809/marketplace/internal/core/domain"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

//go:generate mockgen -destination=mocks/payment_gateway.go -package=mocks github.com/rl1809/marketplace/internal/port PaymentGateway

// PaymentGateway moves value between identities. A Transfer either fully succeeds or
// leaves both balances untouched.
type PaymentGateway interface {
	Transfer(ctx context.Context, from, to domain.Identity, amount uint64) error
}

// BalanceRepository is a PaymentGateway that also holds the balances it moves.
type BalanceRepository interface {
	PaymentGateway

	// Deposit credits amount to owner
	Deposit(ctx context.Context, owner domain.Identity, amount uint64) error

	// Balance returns zero for owners never seen before
	Balance(ctx context.Context, owner domain.Identity) (uint64, error)
}
