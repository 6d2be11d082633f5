package domain

import "github.com/google/uuid"

// CartItem is one line of a user's cart. At most one line exists per product;
// adding the same product again merges into the existing line.
type CartItem struct {
	ID       uuid.UUID `json:"id"`
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
}

// Subtotal is the line total at the price captured on the item.
func (i CartItem) Subtotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}
