package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/port"
)

const defaultLookupLimit = 8

// CartService owns the invariants the store does not enforce: one line per
// product, a cart's cached item count, and the checkout sequence.
// Operations on the same cart are serialized; distinct carts run in parallel.
type CartService struct {
	store     port.CartStore
	products  port.ProductService
	publisher port.CheckoutPublisher
	logger    *zap.Logger
	now       func() time.Time
	locks     *cartLocks
	lookups   singleflight.Group

	missing     MissingProductPolicy
	compensate  bool
	stockGuard  bool
	refresh     time.Duration
	lookupLimit int
}

func NewCartService(store port.CartStore, products port.ProductService, opts ...Option) *CartService {
	s := &CartService{
		store:       store,
		products:    products,
		logger:      zap.NewNop(),
		now:         time.Now,
		locks:       newCartLocks(),
		lookupLimit: defaultLookupLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCart stores a new empty cart. An empty name gets a "Cart NNNNN" label.
func (s *CartService) CreateCart(ctx context.Context, storeID, name string) (domain.Cart, error) {
	if name == "" {
		name = fmt.Sprintf("Cart %05d", s.now().UnixMilli()%100000)
	}

	cart, err := s.store.CreateCart(ctx, storeID, name)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}

	s.logger.Info("cart created",
		zap.String("store_id", storeID),
		zap.String("cart_id", cart.ID),
		zap.String("name", cart.Name))
	return cart, nil
}

// ListCartsForStore returns the store's carts, oldest first.
func (s *CartService) ListCartsForStore(ctx context.Context, storeID string) ([]domain.Cart, error) {
	carts, err := s.store.ListCarts(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}

	slices.SortFunc(carts, func(a, b domain.Cart) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return carts, nil
}

// GetCart returns nil, nil when the cart does not exist.
func (s *CartService) GetCart(ctx context.Context, cartID, storeID string) (*domain.Cart, error) {
	cart, err := s.store.GetCart(ctx, cartID, storeID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) DeleteCart(ctx context.Context, cartID, storeID string) error {
	release, err := s.locks.acquire(ctx, cartID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.store.DeleteCart(ctx, cartID, storeID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	s.logger.Info("cart deleted", zap.String("store_id", storeID), zap.String("cart_id", cartID))
	return nil
}

// AddItemToCart adds quantity units of a product. A product already in the
// cart has its quantity increased instead of getting a second line.
func (s *CartService) AddItemToCart(ctx context.Context, cartID, storeID, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	release, err := s.locks.acquire(ctx, cartID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.requireCart(ctx, cartID, storeID); err != nil {
		return err
	}

	product, err := s.products.GetProduct(ctx, productID, storeID)
	if err != nil {
		return fmt.Errorf("%w: get product %s: %w", ErrExternalService, productID, err)
	}
	if product == nil {
		s.logger.Debug("add skipped, product not found",
			zap.String("cart_id", cartID),
			zap.String("product_id", productID))
		return fmt.Errorf("add %s: %w", productID, ErrProductNotFound)
	}

	refs, err := s.store.ListItemRefs(ctx, cartID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	for _, ref := range refs {
		if ref.ProductID == productID {
			return s.setQuantityLocked(ctx, cartID, storeID, ref.ItemID, ref.Quantity+quantity)
		}
	}

	if _, err := s.store.AddItem(ctx, cartID, productID, quantity); err != nil {
		return fmt.Errorf("add item: %w", err)
	}
	if err := s.store.SetItemCount(ctx, cartID, storeID, distinctProducts(refs)+1); err != nil {
		return fmt.Errorf("update item count: %w", err)
	}
	return nil
}

// UpdateCartItemQuantity overwrites an item's quantity; a quantity of zero or
// less removes the item. The cart's item count only changes on removal.
func (s *CartService) UpdateCartItemQuantity(ctx context.Context, cartID, storeID, itemID string, quantity int) error {
	release, err := s.locks.acquire(ctx, cartID)
	if err != nil {
		return err
	}
	defer release()

	return s.setQuantityLocked(ctx, cartID, storeID, itemID, quantity)
}

// RemoveCartItem deletes an item and refreshes the cart's item count.
// Removing an item that is already gone is not an error.
func (s *CartService) RemoveCartItem(ctx context.Context, cartID, storeID, itemID string) error {
	release, err := s.locks.acquire(ctx, cartID)
	if err != nil {
		return err
	}
	defer release()

	return s.removeLocked(ctx, cartID, storeID, itemID)
}

// GetCartItems joins the cart's items with current product data.
func (s *CartService) GetCartItems(ctx context.Context, cartID, storeID string) ([]domain.CartItem, error) {
	refs, err := s.store.ListItemRefs(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return s.project(ctx, storeID, refs)
}

// Reset wipes every stored cart, e.g. on logout.
func (s *CartService) Reset(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("reset carts: %w", err)
	}
	s.logger.Info("all carts cleared")
	return nil
}

func (s *CartService) requireCart(ctx context.Context, cartID, storeID string) error {
	cart, err := s.store.GetCart(ctx, cartID, storeID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if cart == nil {
		return fmt.Errorf("cart %s: %w", cartID, ErrCartNotFound)
	}
	return nil
}

func (s *CartService) setQuantityLocked(ctx context.Context, cartID, storeID, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.removeLocked(ctx, cartID, storeID, itemID)
	}

	_, ok, err := s.store.GetItemQuantity(ctx, cartID, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, ErrItemNotFound)
	}

	if err := s.store.SetItemQuantity(ctx, cartID, itemID, quantity); err != nil {
		return fmt.Errorf("set quantity: %w", err)
	}
	return nil
}

func (s *CartService) removeLocked(ctx context.Context, cartID, storeID, itemID string) error {
	if err := s.store.RemoveItem(ctx, cartID, itemID); err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	refs, err := s.store.ListItemRefs(ctx, cartID)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	if err := s.store.SetItemCount(ctx, cartID, storeID, distinctProducts(refs)); err != nil {
		return fmt.Errorf("update item count: %w", err)
	}
	return nil
}

func distinctProducts(refs []domain.ItemRef) int {
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		seen[ref.ProductID] = struct{}{}
	}
	return len(seen)
}
