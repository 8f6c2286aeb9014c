package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"storeId"`
	Name      string    `json:"name"`
	ItemCount int       `json:"itemCount"` // distinct line items, kept in sync by the cart service
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemRef is the stored form of a cart line: a product reference and a quantity.
type ItemRef struct {
	ItemID    string `json:"itemId"`
	CartID    string `json:"cartId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartItem is an ItemRef joined with the live product it points at.
type CartItem struct {
	ItemID   string          `json:"itemId"`
	CartID   string          `json:"cartId"`
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartChange is published by a cart store after every write.
// Empty fields mean the change is not scoped (e.g. a full reset).
type CartChange struct {
	StoreID string `json:"storeId,omitempty"`
	CartID  string `json:"cartId,omitempty"`
}

// Affects reports whether a watcher scoped to storeID/cartID should refresh.
func (c CartChange) Affects(storeID, cartID string) bool {
	if c.StoreID == "" && c.CartID == "" {
		return true
	}
	if cartID == "" {
		// Item writes carry only the cart ID and never change a cart row.
		return c.StoreID != "" && (storeID == "" || c.StoreID == storeID)
	}
	if c.CartID != "" {
		return c.CartID == cartID
	}
	return storeID == "" || c.StoreID == storeID
}
