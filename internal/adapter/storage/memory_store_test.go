package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/sarismart-cart/internal/adapter/idgen"
	"github.com/rl1809/sarismart-cart/internal/port"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) port.CartStore {
		return NewMemoryStore(idgen.NewSequence("id"))
	})
}

func TestMemoryStore_ConcurrentWritesOnDistinctCarts(t *testing.T) {
	store := NewMemoryStore(idgen.NewSequence("id"))
	ctx := context.Background()

	const carts = 20
	ids := make([]string, carts)
	for i := range ids {
		c, err := store.CreateCart(ctx, "store-1", "c")
		require.NoError(t, err)
		ids[i] = c.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(cartID string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = store.AddItem(ctx, cartID, "p", 1)
				_, _ = store.ListItemRefs(ctx, cartID)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		refs, err := store.ListItemRefs(ctx, id)
		require.NoError(t, err)
		assert.Len(t, refs, 10)
	}
}

func TestMemoryStore_RemoveDoesNotNotifyWhenNothingChanged(t *testing.T) {
	store := NewMemoryStore(idgen.NewSequence("id"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Subscribe(ctx)
	require.NoError(t, err)
	require.NoError(t, store.RemoveItem(ctx, "cart", "item"))
	require.NoError(t, store.DeleteCart(ctx, "cart", "store"))

	select {
	case change := <-changes:
		t.Fatalf("unexpected change %+v", change)
	default:
	}
}
