package store

import "errors"

var (
	// ErrNotAuthenticated is returned by mutating operations in the guest state.
	ErrNotAuthenticated = errors.New("no active session")

	// ErrInvalidQuantity rejects add/update calls with a quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrProductNotFound means the product id is not in the catalog.
	ErrProductNotFound = errors.New("product not found")

	// ErrEmptyOrder means checkout was attempted with nothing to order.
	ErrEmptyOrder = errors.New("no items selected for the order")

	// ErrInvalidCredential means login verification failed; the session is unchanged.
	ErrInvalidCredential = errors.New("invalid email or verification code")
)
