package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID      string          `json:"id"`
	StoreID string          `json:"storeId"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock"`
}

type Sale struct {
	ID        string          `json:"id"`
	StoreID   string          `json:"storeId"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
}

type SaleItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}
