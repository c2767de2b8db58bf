package domain

import "time"

// Receipt records a settled purchase.
type Receipt struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	ItemID    uint64    `json:"item_id"`
	Buyer     Identity  `json:"buyer"`
	Seller    Identity  `json:"seller"`
	Quantity  uint64    `json:"quantity"`
	Total     uint64    `json:"total"`
	Remaining uint64    `json:"remaining"`
	CreatedAt time.Time `json:"created_at"`
}
