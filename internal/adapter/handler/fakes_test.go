package handler

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/adapter/idgen"
	"github.com/rl1809/sarismart-cart/internal/adapter/storage"
	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/core/service"
)

const testStore = "store-1"

type stubProducts struct {
	mu       sync.Mutex
	products map[string]domain.Product
	failSale bool
}

func newStubProducts() *stubProducts {
	return &stubProducts{products: map[string]domain.Product{
		"p1": {ID: "p1", StoreID: testStore, Name: "Coffee", Price: decimal.RequireFromString("10.00"), Stock: 5},
		"p2": {ID: "p2", StoreID: testStore, Name: "Bread", Price: decimal.RequireFromString("5.00"), Stock: 3},
	}}
}

func (s *stubProducts) GetProduct(_ context.Context, productID, storeID string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.StoreID != storeID {
		return nil, nil
	}
	return &p, nil
}

func (s *stubProducts) SetStock(_ context.Context, productID, _ string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.Stock = stock
	s.products[productID] = p
	return nil
}

func (s *stubProducts) RecordSale(_ context.Context, storeID string, total decimal.Decimal, items []domain.SaleItem) (*domain.Sale, error) {
	if s.failSale {
		return nil, nil
	}
	return &domain.Sale{ID: "sale-1", StoreID: storeID, Total: total, ItemCount: len(items)}, nil
}

func newTestCartService(t *testing.T, products *stubProducts, opts ...service.Option) *service.CartService {
	t.Helper()
	store := storage.NewMemoryStore(idgen.NewSequence("id"))
	return service.NewCartService(store, products, opts...)
}
