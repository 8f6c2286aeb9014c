package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/port"
)

// runStoreContract checks the behavior every port.CartStore adapter shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) port.CartStore) {
	t.Run("create and get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, err := store.CreateCart(ctx, "store-1", "Cart 00001")
		require.NoError(t, err)
		assert.NotEmpty(t, cart.ID)
		assert.Equal(t, 0, cart.ItemCount)

		got, err := store.GetCart(ctx, cart.ID, "store-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, cart.ID, got.ID)
		assert.Equal(t, "store-1", got.StoreID)
		assert.Equal(t, "Cart 00001", got.Name)
	})

	t.Run("get is scoped by store", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, err := store.CreateCart(ctx, "store-1", "a")
		require.NoError(t, err)

		got, err := store.GetCart(ctx, cart.ID, "store-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("list carts of one store", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		a, _ := store.CreateCart(ctx, "store-1", "same")
		b, _ := store.CreateCart(ctx, "store-1", "same")
		_, _ = store.CreateCart(ctx, "store-2", "other")

		carts, err := store.ListCarts(ctx, "store-1")
		require.NoError(t, err)
		ids := make([]string, 0, len(carts))
		for _, c := range carts {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

		empty, err := store.ListCarts(ctx, "store-unknown")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("set item count", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, _ := store.CreateCart(ctx, "store-1", "a")
		require.NoError(t, store.SetItemCount(ctx, cart.ID, "store-1", 3))

		got, err := store.GetCart(ctx, cart.ID, "store-1")
		require.NoError(t, err)
		assert.Equal(t, 3, got.ItemCount)

		require.NoError(t, store.SetItemCount(ctx, "missing", "store-1", 2))
		missing, err := store.GetCart(ctx, "missing", "store-1")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("items do not merge", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, _ := store.CreateCart(ctx, "store-1", "a")
		first, err := store.AddItem(ctx, cart.ID, "p1", 1)
		require.NoError(t, err)
		second, err := store.AddItem(ctx, cart.ID, "p1", 2)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)

		refs, err := store.ListItemRefs(ctx, cart.ID)
		require.NoError(t, err)
		assert.Len(t, refs, 2)
		for _, ref := range refs {
			assert.Equal(t, "p1", ref.ProductID)
			assert.Equal(t, cart.ID, ref.CartID)
		}
	})

	t.Run("item quantity", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, _ := store.CreateCart(ctx, "store-1", "a")
		itemID, _ := store.AddItem(ctx, cart.ID, "p1", 1)

		require.NoError(t, store.SetItemQuantity(ctx, cart.ID, itemID, 7))
		qty, ok, err := store.GetItemQuantity(ctx, cart.ID, itemID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 7, qty)

		_, ok, err = store.GetItemQuantity(ctx, cart.ID, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non-positive quantity removes", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, _ := store.CreateCart(ctx, "store-1", "a")
		itemID, _ := store.AddItem(ctx, cart.ID, "p1", 4)

		require.NoError(t, store.SetItemQuantity(ctx, cart.ID, itemID, 0))
		_, ok, err := store.GetItemQuantity(ctx, cart.ID, itemID)
		require.NoError(t, err)
		assert.False(t, ok)

		refs, _ := store.ListItemRefs(ctx, cart.ID)
		assert.Empty(t, refs)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, _ := store.CreateCart(ctx, "store-1", "a")
		itemID, _ := store.AddItem(ctx, cart.ID, "p1", 1)

		require.NoError(t, store.RemoveItem(ctx, cart.ID, itemID))
		require.NoError(t, store.RemoveItem(ctx, cart.ID, itemID))
	})

	t.Run("delete cascades and is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		cart, _ := store.CreateCart(ctx, "store-1", "a")
		_, _ = store.AddItem(ctx, cart.ID, "p1", 1)
		_, _ = store.AddItem(ctx, cart.ID, "p2", 1)

		require.NoError(t, store.DeleteCart(ctx, cart.ID, "store-1"))
		require.NoError(t, store.DeleteCart(ctx, cart.ID, "store-1"))

		got, err := store.GetCart(ctx, cart.ID, "store-1")
		require.NoError(t, err)
		assert.Nil(t, got)

		refs, err := store.ListItemRefs(ctx, cart.ID)
		require.NoError(t, err)
		assert.Empty(t, refs)

		carts, _ := store.ListCarts(ctx, "store-1")
		assert.Empty(t, carts)
	})

	t.Run("clear all", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		a, _ := store.CreateCart(ctx, "store-1", "a")
		b, _ := store.CreateCart(ctx, "store-2", "b")
		_, _ = store.AddItem(ctx, a.ID, "p1", 1)
		_, _ = store.AddItem(ctx, b.ID, "p1", 1)

		require.NoError(t, store.ClearAll(ctx))

		for _, s := range []string{"store-1", "store-2"} {
			carts, err := store.ListCarts(ctx, s)
			require.NoError(t, err)
			assert.Empty(t, carts)
		}
		refs, _ := store.ListItemRefs(ctx, a.ID)
		assert.Empty(t, refs)
	})

	t.Run("subscribe sees writes", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes, err := store.Subscribe(ctx)
		require.NoError(t, err)
		cart, err := store.CreateCart(ctx, "store-1", "a")
		require.NoError(t, err)

		select {
		case change := <-changes:
			assert.Equal(t, domain.CartChange{StoreID: "store-1", CartID: cart.ID}, change)
		case <-time.After(2 * time.Second):
			t.Fatal("no change notification")
		}

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-changes:
				return !ok
			default:
				return false
			}
		}, 2*time.Second, 10*time.Millisecond)
	})
}
