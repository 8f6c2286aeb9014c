package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/port"
)

// MemoryStore keeps carts in nested maps: storeID -> cartID -> cart and
// cartID -> itemID -> item. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	ids   port.IDGenerator
	now   func() time.Time
	carts map[string]map[string]domain.Cart
	items map[string]map[string]domain.ItemRef
	hub   *changeHub
}

func NewMemoryStore(ids port.IDGenerator) *MemoryStore {
	return &MemoryStore{
		ids:   ids,
		now:   time.Now,
		carts: make(map[string]map[string]domain.Cart),
		items: make(map[string]map[string]domain.ItemRef),
		hub:   newChangeHub(),
	}
}

func (m *MemoryStore) CreateCart(_ context.Context, storeID, name string) (domain.Cart, error) {
	now := m.now()
	cart := domain.Cart{
		ID:        m.ids.NewID(),
		StoreID:   storeID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	byID, ok := m.carts[storeID]
	if !ok {
		byID = make(map[string]domain.Cart)
		m.carts[storeID] = byID
	}
	byID[cart.ID] = cart
	m.mu.Unlock()

	m.hub.publish(domain.CartChange{StoreID: storeID, CartID: cart.ID})
	return cart, nil
}

func (m *MemoryStore) ListCarts(_ context.Context, storeID string) ([]domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	carts := make([]domain.Cart, 0, len(m.carts[storeID]))
	for _, c := range m.carts[storeID] {
		carts = append(carts, c)
	}
	return carts, nil
}

func (m *MemoryStore) GetCart(_ context.Context, cartID, storeID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.carts[storeID][cartID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryStore) DeleteCart(_ context.Context, cartID, storeID string) error {
	m.mu.Lock()
	_, hadCart := m.carts[storeID][cartID]
	_, hadItems := m.items[cartID]
	if byID, ok := m.carts[storeID]; ok {
		delete(byID, cartID)
		if len(byID) == 0 {
			delete(m.carts, storeID)
		}
	}
	delete(m.items, cartID)
	m.mu.Unlock()

	if hadCart || hadItems {
		m.hub.publish(domain.CartChange{StoreID: storeID, CartID: cartID})
	}
	return nil
}

func (m *MemoryStore) SetItemCount(_ context.Context, cartID, storeID string, count int) error {
	m.mu.Lock()
	c, ok := m.carts[storeID][cartID]
	if ok {
		c.ItemCount = count
		c.UpdatedAt = m.now()
		m.carts[storeID][cartID] = c
	}
	m.mu.Unlock()

	if ok {
		m.hub.publish(domain.CartChange{StoreID: storeID, CartID: cartID})
	}
	return nil
}

func (m *MemoryStore) AddItem(_ context.Context, cartID, productID string, quantity int) (string, error) {
	ref := domain.ItemRef{
		ItemID:    m.ids.NewID(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	}

	m.mu.Lock()
	byID, ok := m.items[cartID]
	if !ok {
		byID = make(map[string]domain.ItemRef)
		m.items[cartID] = byID
	}
	byID[ref.ItemID] = ref
	m.mu.Unlock()

	m.hub.publish(domain.CartChange{CartID: cartID})
	return ref.ItemID, nil
}

func (m *MemoryStore) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, cartID, itemID)
	}

	m.mu.Lock()
	ref, ok := m.items[cartID][itemID]
	if ok {
		ref.Quantity = quantity
		m.items[cartID][itemID] = ref
	}
	m.mu.Unlock()

	if ok {
		m.hub.publish(domain.CartChange{CartID: cartID})
	}
	return nil
}

func (m *MemoryStore) RemoveItem(_ context.Context, cartID, itemID string) error {
	m.mu.Lock()
	_, ok := m.items[cartID][itemID]
	if ok {
		delete(m.items[cartID], itemID)
		if len(m.items[cartID]) == 0 {
			delete(m.items, cartID)
		}
	}
	m.mu.Unlock()

	if ok {
		m.hub.publish(domain.CartChange{CartID: cartID})
	}
	return nil
}

func (m *MemoryStore) ListItemRefs(_ context.Context, cartID string) ([]domain.ItemRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := make([]domain.ItemRef, 0, len(m.items[cartID]))
	for _, ref := range m.items[cartID] {
		refs = append(refs, ref)
	}
	return refs, nil
}

func (m *MemoryStore) GetItemQuantity(_ context.Context, cartID, itemID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ref, ok := m.items[cartID][itemID]
	return ref.Quantity, ok, nil
}

func (m *MemoryStore) ClearAll(_ context.Context) error {
	m.mu.Lock()
	m.carts = make(map[string]map[string]domain.Cart)
	m.items = make(map[string]map[string]domain.ItemRef)
	m.mu.Unlock()

	m.hub.publish(domain.CartChange{})
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context) (<-chan domain.CartChange, error) {
	return m.hub.subscribe(ctx), nil
}
