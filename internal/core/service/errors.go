package service

import (
	"errors"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
)

// Error kinds reported to callers.
const (
	KindUnauthorizedAccess   = "UnauthorizedAccess"
	KindInsufficientQuantity = "InsufficientQuantity"
	KindInvalidPrice         = "InvalidPrice"
	KindInvalidQuantity      = "InvalidQuantity"
	KindInvalidAmount        = "InvalidAmount"
	KindDuplicateRequest     = "DuplicateRequest"
	KindItemNotFound         = "ItemNotFound"
	KindItemExists           = "ItemExists"
	KindInsufficientFunds    = "InsufficientFunds"
	KindInvalidInput         = "InvalidInput"
	KindConflict             = "Conflict"
	KindInternal             = "Internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnauthorizedAccess, KindUnauthorizedAccess},
	{ErrInsufficientQuantity, KindInsufficientQuantity},
	{ErrInvalidPrice, KindInvalidPrice},
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrDuplicateRequest, KindDuplicateRequest},
	{port.ErrItemNotFound, KindItemNotFound},
	{port.ErrItemExists, KindItemExists},
	{port.ErrInsufficientFunds, KindInsufficientFunds},
	{port.ErrOptimisticLock, KindConflict},
	{domain.ErrNameTooLong, KindInvalidInput},
	{domain.ErrValueOutOfRange, KindInvalidInput},
	{domain.ErrInvalidIdentity, KindInvalidInput},
}

// ErrorKind maps err to the name of its kind, or KindInternal.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
