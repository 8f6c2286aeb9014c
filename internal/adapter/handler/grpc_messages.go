package handler

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

type CreateCartRequest struct {
	StoreID string `json:"storeId"`
	Name    string `json:"name,omitempty"`
}

type ListCartsRequest struct {
	StoreID string `json:"storeId"`
}

// CartRequest addresses a single cart.
type CartRequest struct {
	StoreID string `json:"storeId"`
	CartID  string `json:"cartId"`
}

type AddItemRequest struct {
	StoreID   string `json:"storeId"`
	CartID    string `json:"cartId"`
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity,omitempty"` // 0 means 1
}

type UpdateQuantityRequest struct {
	StoreID  string `json:"storeId"`
	CartID   string `json:"cartId"`
	ItemID   string `json:"itemId"`
	Quantity int32  `json:"quantity"`
}

type RemoveItemRequest struct {
	StoreID string `json:"storeId"`
	CartID  string `json:"cartId"`
	ItemID  string `json:"itemId"`
}

type ResetRequest struct{}

type CartResponse struct {
	Cart  *domain.Cart `json:"cart,omitempty"`
	Found bool         `json:"found"`
}

type ListCartsResponse struct {
	Carts []domain.Cart `json:"carts"`
}

type CartItemsResponse struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

type CheckoutResponse struct {
	Result  domain.CheckoutResult `json:"result"`
	Message string                `json:"message"`
}

type Empty struct{}
