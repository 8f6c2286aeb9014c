package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

// Envelope wraps every event this service emits.
type Envelope[T any] struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      T         `json:"payload"`
}

type CheckedOutItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type CartCheckedOut struct {
	CartID   string           `json:"cartId"`
	CartName string           `json:"cartName"`
	StoreID  string           `json:"storeId"`
	SaleID   string           `json:"saleId"`
	Total    decimal.Decimal  `json:"total"`
	Items    []CheckedOutItem `json:"items"`
}

func newCartCheckedOut(cart domain.Cart, sale domain.Sale, items []domain.CartItem) CartCheckedOut {
	ev := CartCheckedOut{
		CartID:   cart.ID,
		CartName: cart.Name,
		StoreID:  cart.StoreID,
		SaleID:   sale.ID,
		Total:    sale.Total,
		Items:    make([]CheckedOutItem, 0, len(items)),
	}
	for _, it := range items {
		ev.Items = append(ev.Items, CheckedOutItem{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
			Subtotal:  it.Subtotal,
		})
	}
	return ev
}
