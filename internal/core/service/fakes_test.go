package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/adapter/idgen"
	"github.com/rl1809/sarismart-cart/internal/adapter/storage"
	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

var errBackend = errors.New("backend unavailable")

// mockProductService is an in-memory product backend with failure switches.
type mockProductService struct {
	mu         sync.Mutex
	products   map[string]domain.Product
	sales      []domain.Sale
	stockCalls []string
	getCalls   int

	failGet      bool
	failSetStock map[string]bool
	failSale     bool
	nilSale      bool
	failRestore  bool
	onSetStock   func(productID string)
	onGetProduct func(ctx context.Context, productID string) error
}

func newMockProductService(products ...domain.Product) *mockProductService {
	m := &mockProductService{
		products:     make(map[string]domain.Product),
		failSetStock: make(map[string]bool),
	}
	for _, p := range products {
		m.products[p.StoreID+"/"+p.ID] = p
	}
	return m
}

func (m *mockProductService) GetProduct(ctx context.Context, productID, storeID string) (*domain.Product, error) {
	m.mu.Lock()
	hook := m.onGetProduct
	m.mu.Unlock()
	if hook != nil {
		if err := hook(ctx, productID); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	if m.failGet {
		return nil, errBackend
	}
	p, ok := m.products[storeID+"/"+productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProductService) SetStock(_ context.Context, productID, storeID string, stock int) error {
	m.mu.Lock()
	hook := m.onSetStock
	key := storeID + "/" + productID
	p, ok := m.products[key]
	restoring := ok && stock > p.Stock
	if m.failSetStock[productID] || (restoring && m.failRestore) {
		m.mu.Unlock()
		return errBackend
	}
	if !ok {
		m.mu.Unlock()
		return errors.New("no such product")
	}
	p.Stock = stock
	m.products[key] = p
	m.stockCalls = append(m.stockCalls, productID)
	m.mu.Unlock()

	if hook != nil {
		hook(productID)
	}
	return nil
}

func (m *mockProductService) RecordSale(_ context.Context, storeID string, total decimal.Decimal, items []domain.SaleItem) (*domain.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSale {
		return nil, errBackend
	}
	if m.nilSale {
		return nil, nil
	}
	sale := domain.Sale{ID: "sale-1", StoreID: storeID, Total: total, ItemCount: len(items)}
	m.sales = append(m.sales, sale)
	return &sale, nil
}

func (m *mockProductService) stock(storeID, productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[storeID+"/"+productID].Stock
}

func (m *mockProductService) setPrice(storeID, productID string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[storeID+"/"+productID]
	p.Price = price
	m.products[storeID+"/"+productID] = p
}

func (m *mockProductService) remove(storeID, productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, storeID+"/"+productID)
}

type recordingPublisher struct {
	mu    sync.Mutex
	carts []domain.Cart
	err   error
}

func (p *recordingPublisher) PublishCartCheckedOut(_ context.Context, cart domain.Cart, _ domain.Sale, _ []domain.CartItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carts = append(p.carts, cart)
	return p.err
}

const testStore = "store-1"

func product(id, price string, stock int) domain.Product {
	return domain.Product{ID: id, StoreID: testStore, Name: id, Price: decimal.RequireFromString(price), Stock: stock}
}

func newTestService(t *testing.T, products *mockProductService, opts ...Option) (*CartService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(idgen.NewSequence("id"))
	return NewCartService(store, products, opts...), store
}
