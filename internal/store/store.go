package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ZClee128/xieka/internal/auth"
	"github.com/ZClee128/xieka/internal/catalog"
	"github.com/ZClee128/xieka/internal/domain"
	"github.com/ZClee128/xieka/internal/gateway"
	"github.com/google/uuid"
)

// Store is the storefront state facade: catalog view, cart ledger, order
// ledger and the session they are scoped to. All mutation goes through its
// methods; the UI layer only ever sees copies. Mutations are write-through:
// the staged state is persisted via the gateway first and committed to
// memory only after the write is acknowledged.
type Store struct {
	mu       sync.RWMutex
	catalog  *catalog.Catalog
	gw       gateway.Gateway
	verifier auth.Verifier

	session domain.Session

	// Active view, owned exclusively by the store and swapped wholesale on
	// login/logout.
	cart   []domain.CartItem
	orders []domain.Order

	// In-memory mirrors of the durable per-user records.
	userCarts  cartsRecord
	userOrders ordersRecord
}

// New builds the store and restores any persisted session. A corrupt session
// record degrades to the guest state instead of failing; only gateway I/O
// errors are returned.
func New(ctx context.Context, cat *catalog.Catalog, gw gateway.Gateway, verifier auth.Verifier) (*Store, error) {
	s := &Store{
		catalog:    cat,
		gw:         gw,
		verifier:   verifier,
		session:    domain.Guest(),
		userCarts:  cartsRecord{},
		userOrders: ordersRecord{},
	}
	if err := s.restoreSession(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the products in seed order.
func (s *Store) Catalog() []*domain.Product {
	return s.catalog.List()
}

func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated()
}

func (s *Store) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.User()
}

// CartItems returns a copy of the active cart, in insertion order.
func (s *Store) CartItems() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.cart)
}

// CartTotal is computed live from current catalog prices, unlike an order
// total which is frozen at creation.
func (s *Store) CartTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, item := range s.cart {
		total += s.livePrice(item) * float64(item.Quantity)
	}
	return total
}

// livePrice resolves the item's product against the catalog, falling back to
// the price captured on the line for products no longer listed.
func (s *Store) livePrice(item domain.CartItem) float64 {
	if p, ok := s.catalog.Get(item.Product.ID); ok {
		return p.Price
	}
	return item.Product.Price
}

// AddToCart adds quantity of a product to the cart. If a line for the product
// already exists the quantity is merged into it, never replaced.
func (s *Store) AddToCart(ctx context.Context, productID uuid.UUID, quantity int) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return domain.CartItem{}, ErrNotAuthenticated
	}
	if quantity < 1 {
		return domain.CartItem{}, ErrInvalidQuantity
	}
	product, found := s.catalog.Get(productID)
	if !found {
		return domain.CartItem{}, ErrProductNotFound
	}

	next := cloneItems(s.cart)
	var line domain.CartItem
	merged := false
	for i := range next {
		if next[i].Product.ID == productID {
			next[i].Quantity += quantity
			line = next[i]
			merged = true
			break
		}
	}
	if !merged {
		line = domain.CartItem{ID: uuid.New(), Product: *product, Quantity: quantity}
		next = append(next, line)
	}

	if err := s.commitLedgers(ctx, user, next, s.orders); err != nil {
		return domain.CartItem{}, err
	}
	return line, nil
}

// RemoveFromCart deletes the cart line with the given id. Removing a line
// that does not exist is a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return ErrNotAuthenticated
	}

	next := make([]domain.CartItem, 0, len(s.cart))
	removed := false
	for _, item := range s.cart {
		if item.ID == itemID {
			removed = true
			continue
		}
		next = append(next, item)
	}
	if !removed {
		return nil
	}

	return s.commitLedgers(ctx, user, next, s.orders)
}

// UpdateQuantity replaces the quantity of an existing cart line. Quantities
// below 1 are rejected; updating a missing line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return ErrNotAuthenticated
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	next := cloneItems(s.cart)
	found := false
	for i := range next {
		if next[i].ID == itemID {
			next[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	return s.commitLedgers(ctx, user, next, s.orders)
}

// CreateOrder snapshots the selected cart lines into a new Pending order and
// removes them from the cart in the same commit. An empty selection falls
// back to the entire cart.
func (s *Store) CreateOrder(ctx context.Context, itemIDs []uuid.UUID) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return domain.Order{}, ErrNotAuthenticated
	}

	var selected []domain.CartItem
	if len(itemIDs) == 0 {
		selected = s.cart
	} else {
		want := make(map[uuid.UUID]struct{}, len(itemIDs))
		for _, id := range itemIDs {
			want[id] = struct{}{}
		}
		for _, item := range s.cart {
			if _, ok := want[item.ID]; ok {
				selected = append(selected, item)
			}
		}
	}
	if len(selected) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	snapshot := cloneItems(selected)
	var total float64
	for _, item := range snapshot {
		total += item.Subtotal()
	}
	order := domain.Order{
		ID:          uuid.New(),
		Items:       snapshot,
		TotalAmount: total,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
	}

	// Ordered lines leave the cart by identity, in the same commit that
	// inserts the order.
	ordered := make(map[uuid.UUID]struct{}, len(selected))
	for _, item := range selected {
		ordered[item.ID] = struct{}{}
	}
	nextCart := make([]domain.CartItem, 0, len(s.cart))
	for _, item := range s.cart {
		if _, ok := ordered[item.ID]; ok {
			continue
		}
		nextCart = append(nextCart, item)
	}
	nextOrders := append([]domain.Order{order}, cloneOrders(s.orders)...)

	if err := s.commitLedgers(ctx, user, nextCart, nextOrders); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// BuyNow creates a single-line Pending order directly from a product,
// without touching the cart.
func (s *Store) BuyNow(ctx context.Context, productID uuid.UUID) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return domain.Order{}, ErrNotAuthenticated
	}
	product, found := s.catalog.Get(productID)
	if !found {
		return domain.Order{}, ErrProductNotFound
	}

	item := domain.CartItem{ID: uuid.New(), Product: *product, Quantity: 1}
	order := domain.Order{
		ID:          uuid.New(),
		Items:       []domain.CartItem{item},
		TotalAmount: product.Price,
		Status:      domain.OrderStatusPending,
		CreatedAt:   time.Now(),
	}
	nextOrders := append([]domain.Order{order}, cloneOrders(s.orders)...)

	if err := s.commitLedgers(ctx, user, s.cart, nextOrders); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Orders returns a copy of the order history, newest first by insertion.
func (s *Store) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.orders)
}

// MarkPaid transitions a Pending order to Paid. A missing order or one in
// any other status is a no-op, not an error.
func (s *Store) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return nil
	}

	idx := -1
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			idx = i
			break
		}
	}
	if idx < 0 || s.orders[idx].Status != domain.OrderStatusPending {
		return nil
	}

	next := cloneOrders(s.orders)
	next[idx].Status = domain.OrderStatusPaid

	return s.commitLedgers(ctx, user, s.cart, next)
}

// RequestCode asks the verification collaborator to send a code.
func (s *Store) RequestCode(ctx context.Context, email string) error {
	return s.verifier.RequestCode(ctx, email)
}

// Login verifies the email/code pair and swaps the active ledgers to the
// verified user's persisted data, or to empty ledgers for a first login.
// A login while another user is active flushes that user's data first.
func (s *Store) Login(ctx context.Context, email, code string) (domain.User, error) {
	user, err := s.verifier.Verify(ctx, email, code)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			return domain.User{}, ErrInvalidCredential
		}
		return domain.User{}, fmt.Errorf("verification failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.session.User(); ok {
		if current.ID == user.ID {
			return user, nil
		}
		if err := s.commitLedgers(ctx, current, s.cart, s.orders); err != nil {
			return domain.User{}, err
		}
	}

	// User record first, flag last; restore reads the flag first and must
	// never see it set without a parsable user record.
	userJSON, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.gw.Set(ctx, keySessionUser, userJSON); err != nil {
		return domain.User{}, fmt.Errorf("failed to write session user: %w", err)
	}
	activeJSON, _ := json.Marshal(true)
	if err := s.gw.Set(ctx, keySessionActive, activeJSON); err != nil {
		return domain.User{}, fmt.Errorf("failed to write session flag: %w", err)
	}

	s.session = domain.Authenticated(user)
	s.cart = cloneItems(s.userCarts[user.ID.String()])
	s.orders = cloneOrders(s.userOrders[user.ID.String()])
	return user, nil
}

// Logout flushes the active ledgers for the outgoing user, then clears the
// session to guest. The flush comes first; if it fails the logout is aborted
// so no unsaved mutation is lost.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return nil
	}

	if err := s.commitLedgers(ctx, user, s.cart, s.orders); err != nil {
		return err
	}

	activeJSON, _ := json.Marshal(false)
	if err := s.gw.Set(ctx, keySessionActive, activeJSON); err != nil {
		return fmt.Errorf("failed to clear session flag: %w", err)
	}

	s.session = domain.Guest()
	s.cart = nil
	s.orders = nil
	return nil
}

// Flush persists the active ledgers without changing the session. Called at
// process shutdown.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.session.User()
	if !ok {
		return nil
	}
	return s.commitLedgers(ctx, user, s.cart, s.orders)
}

// restoreSession re-establishes the persisted session, if any. The ledger
// records are loaded regardless of session state so a later login finds
// earlier data. A session record that fails to parse degrades to guest via
// the same path as logout.
func (s *Store) restoreSession(ctx context.Context) error {
	carts, err := s.readCartsRecord(ctx)
	if err != nil {
		return err
	}
	orders, err := s.readOrdersRecord(ctx)
	if err != nil {
		return err
	}
	s.userCarts = carts
	s.userOrders = orders

	activeJSON, err := s.gw.Get(ctx, keySessionActive)
	if errors.Is(err, gateway.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session flag: %w", err)
	}
	var active bool
	if err := json.Unmarshal(activeJSON, &active); err != nil {
		log.Printf("corrupt session flag, falling back to guest: %v", err)
		return s.failSafeLogout(ctx)
	}
	if !active {
		return nil
	}

	userJSON, err := s.gw.Get(ctx, keySessionUser)
	if errors.Is(err, gateway.ErrKeyNotFound) {
		log.Printf("session flag set but no user record, falling back to guest")
		return s.failSafeLogout(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to read session user: %w", err)
	}
	var user domain.User
	if err := json.Unmarshal(userJSON, &user); err != nil {
		log.Printf("corrupt session user record, falling back to guest: %v", err)
		return s.failSafeLogout(ctx)
	}

	s.session = domain.Authenticated(user)
	s.cart = cloneItems(s.userCarts[user.ID.String()])
	s.orders = cloneOrders(s.userOrders[user.ID.String()])
	log.Printf("session restored for %s", user.Username)
	return nil
}

// failSafeLogout clears the persisted session flag and resets to guest,
// leaving any per-user ledger records in place.
func (s *Store) failSafeLogout(ctx context.Context) error {
	activeJSON, _ := json.Marshal(false)
	if err := s.gw.Set(ctx, keySessionActive, activeJSON); err != nil {
		return fmt.Errorf("failed to clear session flag: %w", err)
	}
	s.session = domain.Guest()
	s.cart = nil
	s.orders = nil
	return nil
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Product.Tags = append([]string(nil), out[i].Product.Tags...)
	}
	return out
}

func cloneOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	for i := range out {
		out[i].Items = cloneItems(out[i].Items)
	}
	return out
}
