package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

// ProductService is the product backend: stock and sales live there, not here.
type ProductService interface {
	// GetProduct returns nil, nil when the product does not exist
	GetProduct(ctx context.Context, productID, storeID string) (*domain.Product, error)
	SetStock(ctx context.Context, productID, storeID string, stock int) error
	// RecordSale returns nil, nil when the backend accepted the call but produced no sale
	RecordSale(ctx context.Context, storeID string, total decimal.Decimal, items []domain.SaleItem) (*domain.Sale, error)
}
