package port

import (
	"context"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

// CartStore persists carts per store and cart items per cart.
// Absent records are reported as nil/false with a nil error.
type CartStore interface {
	// CreateCart allocates a new cart id and stores the cart with a zero item count
	CreateCart(ctx context.Context, storeID, name string) (domain.Cart, error)
	// ListCarts returns every cart of the store, in no particular order
	ListCarts(ctx context.Context, storeID string) ([]domain.Cart, error)
	GetCart(ctx context.Context, cartID, storeID string) (*domain.Cart, error)
	// DeleteCart removes the cart and all its items; deleting a missing cart is a no-op
	DeleteCart(ctx context.Context, cartID, storeID string) error
	SetItemCount(ctx context.Context, cartID, storeID string, count int) error

	// AddItem stores a new line without checking for an existing line of the same product
	AddItem(ctx context.Context, cartID, productID string, quantity int) (string, error)
	// SetItemQuantity overwrites the quantity; quantity <= 0 removes the item
	SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID string) error
	ListItemRefs(ctx context.Context, cartID string) ([]domain.ItemRef, error)
	GetItemQuantity(ctx context.Context, cartID, itemID string) (int, bool, error)

	// ClearAll wipes every cart and item, used on logout/reset
	ClearAll(ctx context.Context) error

	// Subscribe streams a change notification after every write until ctx is done.
	// Writes made after Subscribe returns are never missed.
	Subscribe(ctx context.Context) (<-chan domain.CartChange, error)
}

// IDGenerator mints identifiers for carts, items and sales.
type IDGenerator interface {
	NewID() string
}
