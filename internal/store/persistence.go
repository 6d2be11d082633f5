package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ZClee128/xieka/internal/domain"
	"github.com/ZClee128/xieka/internal/gateway"
)

// Gateway keys. One flag for "is a session active", one for the logged-in
// user, and one record per ledger kind mapping user id to that user's data.
const (
	keySessionActive = "session:active"
	keySessionUser   = "session:user"
	keyUserCarts     = "carts"
	keyUserOrders    = "orders"
)

type cartsRecord map[string][]domain.CartItem

type ordersRecord map[string][]domain.Order

// readCartsRecord loads the durable user-to-cart record. An absent key yields
// an empty record; a record that fails to parse is discarded rather than
// surfaced, per the fail-safe policy.
func (s *Store) readCartsRecord(ctx context.Context) (cartsRecord, error) {
	data, err := s.gw.Get(ctx, keyUserCarts)
	if errors.Is(err, gateway.ErrKeyNotFound) {
		return cartsRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart record: %w", err)
	}

	var rec cartsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("discarding corrupt cart record: %v", err)
		return cartsRecord{}, nil
	}
	if rec == nil {
		rec = cartsRecord{}
	}
	return rec, nil
}

func (s *Store) readOrdersRecord(ctx context.Context) (ordersRecord, error) {
	data, err := s.gw.Get(ctx, keyUserOrders)
	if errors.Is(err, gateway.ErrKeyNotFound) {
		return ordersRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order record: %w", err)
	}

	var rec ordersRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("discarding corrupt order record: %v", err)
		return ordersRecord{}, nil
	}
	if rec == nil {
		rec = ordersRecord{}
	}
	return rec, nil
}

// writeLedgers writes both per-user records. The cart record goes first so a
// crash between the two writes can lose an order but never duplicate its
// items back into the cart; if the order write fails the cart write is rolled
// back to keep the records in step.
func (s *Store) writeLedgers(ctx context.Context, carts cartsRecord, orders ordersRecord) error {
	cartsJSON, err := json.Marshal(carts)
	if err != nil {
		return fmt.Errorf("failed to marshal cart record: %w", err)
	}
	ordersJSON, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal order record: %w", err)
	}
	prevCartsJSON, err := json.Marshal(s.userCarts)
	if err != nil {
		return fmt.Errorf("failed to marshal previous cart record: %w", err)
	}

	if err := s.gw.Set(ctx, keyUserCarts, cartsJSON); err != nil {
		return fmt.Errorf("failed to write cart record: %w", err)
	}
	if err := s.gw.Set(ctx, keyUserOrders, ordersJSON); err != nil {
		if rbErr := s.gw.Set(ctx, keyUserCarts, prevCartsJSON); rbErr != nil {
			log.Printf("failed to roll back cart record: %v", rbErr)
		}
		return fmt.Errorf("failed to write order record: %w", err)
	}
	return nil
}

// commitLedgers stages the given ledgers as the active user's data, persists
// them, and only then swaps them into memory. A gateway error therefore
// leaves both memory and durable state at the pre-call value.
func (s *Store) commitLedgers(ctx context.Context, user domain.User, cart []domain.CartItem, orders []domain.Order) error {
	key := user.ID.String()

	nextCarts := make(cartsRecord, len(s.userCarts)+1)
	for k, v := range s.userCarts {
		nextCarts[k] = v
	}
	nextCarts[key] = cart

	nextOrders := make(ordersRecord, len(s.userOrders)+1)
	for k, v := range s.userOrders {
		nextOrders[k] = v
	}
	nextOrders[key] = orders

	if err := s.writeLedgers(ctx, nextCarts, nextOrders); err != nil {
		return err
	}

	s.userCarts = nextCarts
	s.userOrders = nextOrders
	s.cart = cart
	s.orders = orders
	return nil
}
