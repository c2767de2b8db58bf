package port

import (
	"context"
	"errors"

	"github.com/rl1809/marketplace/internal/core/domain"
)

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrItemExists     = errors.New("item already exists")
	ErrOptimisticLock = errors.New("optimistic lock conflict")
)

// ItemRepository allocates, reads, writes and destroys item records. Records are keyed
// by domain.ItemAddress(id); implementations reject a Create whose address is taken.
type ItemRepository interface {
	// CreateItem allocates a new record, returns ErrItemExists if the address is in use
	CreateItem(ctx context.Context, item domain.Item) error

	// GetItem returns ErrItemNotFound for an absent record
	GetItem(ctx context.Context, id uint64) (*domain.Item, error)

	// UpdateItem writes the record back, with a version check where the backend supports it
	UpdateItem(ctx context.Context, item domain.Item) error

	// DeleteItem destroys the record, returns ErrItemNotFound if already absent
	DeleteItem(ctx context.Context, id uint64) error

	ListItems(ctx context.Context) ([]domain.Item, error)
}
