package domain

import "time"

// MaxNameLength is the storage bound on an item name, in bytes.
const MaxNameLength = 50

type Item struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Quantity  uint64    `json:"quantity"`
	Price     uint64    `json:"price"`
	Authority Identity  `json:"authority"`
	Version   int64     `json:"-"` // optimistic locking
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i Item) Address() Address {
	return ItemAddress(i.ID)
}
