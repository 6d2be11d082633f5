package domain

import "github.com/google/uuid"

// Product is a purchasable catalog entry. Products are created once by the
// catalog and never mutated afterwards; everything else holds them by value.
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"original_price"`
	Description   string    `json:"description"`
	ImageName     string    `json:"image_name"`
	Tags          []string  `json:"tags"`
}
