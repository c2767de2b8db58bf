package service

import (
	"errors"
	"math/bits"

	"github.com/rl1809/marketplace/internal/core/domain"
)

var (
	ErrUnauthorizedAccess   = errors.New("only the authority can perform this action")
	ErrInsufficientQuantity = errors.New("not enough quantity available for purchase")
	ErrInvalidPrice         = errors.New("price must be greater than zero")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
)

func checkPrice(price uint64) error {
	if price == 0 {
		return ErrInvalidPrice
	}
	return nil
}

func checkQuantity(quantity uint64) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func checkAuthority(item domain.Item, signer domain.Identity) error {
	if !item.Authority.Equal(signer) {
		return ErrUnauthorizedAccess
	}
	return nil
}

func checkAvailable(available, requested uint64) error {
	if available < requested {
		return ErrInsufficientQuantity
	}
	return nil
}

// totalPrice reports an overflow as ErrInvalidPrice.
func totalPrice(price, quantity uint64) (uint64, error) {
	hi, lo := bits.Mul64(price, quantity)
	if hi != 0 {
		return 0, ErrInvalidPrice
	}
	return lo, nil
}

func remainingQuantity(available, requested uint64) (uint64, error) {
	diff, borrow := bits.Sub64(available, requested, 0)
	if borrow != 0 {
		return 0, ErrInsufficientQuantity
	}
	return diff, nil
}
