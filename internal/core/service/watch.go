package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

// WatchCarts emits the store's carts now and again after every store write
// that touches the store. The channel closes when ctx ends.
func (s *CartService) WatchCarts(ctx context.Context, storeID string) (<-chan []domain.Cart, error) {
	return watch(ctx, s, func(c domain.CartChange) bool {
		return c.Affects(storeID, "")
	}, func(ctx context.Context) ([]domain.Cart, error) {
		return s.ListCartsForStore(ctx, storeID)
	}, 0)
}

// WatchCartItems emits the cart's joined items now, after every write to the
// cart and, when a refresh interval is configured, on every tick.
func (s *CartService) WatchCartItems(ctx context.Context, cartID, storeID string) (<-chan []domain.CartItem, error) {
	return watch(ctx, s, func(c domain.CartChange) bool {
		return c.Affects(storeID, cartID)
	}, func(ctx context.Context) ([]domain.CartItem, error) {
		return s.GetCartItems(ctx, cartID, storeID)
	}, s.refresh)
}

func watch[T any](
	ctx context.Context,
	s *CartService,
	affects func(domain.CartChange) bool,
	load func(context.Context) (T, error),
	refresh time.Duration,
) (<-chan T, error) {
	ctx, cancel := context.WithCancel(ctx)

	// subscribe before the first read so no write falls in between
	changes, err := s.store.Subscribe(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to changes: %w", err)
	}
	initial, err := load(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	var tick <-chan time.Time
	if refresh > 0 {
		ticker := time.NewTicker(refresh)
		tick = ticker.C
		context.AfterFunc(ctx, ticker.Stop)
	}

	out := make(chan T, 1)
	go func() {
		defer close(out)
		defer cancel()

		if !emit(ctx, out, initial) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !affects(change) {
					continue
				}
			case <-tick:
			}

			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("watch reload failed", zap.Error(err))
				continue
			}
			if !emit(ctx, out, v) {
				return
			}
		}
	}()

	return out, nil
}

func emit[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
