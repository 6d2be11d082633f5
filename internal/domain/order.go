package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPaid      OrderStatus = "Paid"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// Order is an immutable purchase record. Items and TotalAmount are snapshots
// taken at creation time; only Status changes afterwards. Orders created by
// this store start as Pending; the remaining statuses belong to fulfillment
// but are preserved if present in restored data.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	Items       []CartItem  `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
