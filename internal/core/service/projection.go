package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

const lookupTimeout = 10 * time.Second

// JoinCartItem builds the read model of one stored item. The subtotal is
// always derived from the product passed in.
func JoinCartItem(ref domain.ItemRef, product domain.Product) domain.CartItem {
	return domain.CartItem{
		ItemID:   ref.ItemID,
		CartID:   ref.CartID,
		Product:  product,
		Quantity: ref.Quantity,
		Subtotal: product.Price.Mul(decimal.NewFromInt(int64(ref.Quantity))),
	}
}

// Total sums the subtotals of items.
func Total(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

func (s *CartService) project(ctx context.Context, storeID string, refs []domain.ItemRef) ([]domain.CartItem, error) {
	products := make([]*domain.Product, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.lookupLimit)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			p, err := s.lookupProduct(gctx, ref.ProductID, storeID)
			if err != nil {
				return err
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(refs))
	for i, ref := range refs {
		p := products[i]
		if p == nil {
			if s.missing == FailOnMissing {
				return nil, fmt.Errorf("item %s references %s: %w", ref.ItemID, ref.ProductID, ErrProductNotFound)
			}
			s.logger.Debug("dropping item with unknown product",
				zap.String("cart_id", ref.CartID),
				zap.String("item_id", ref.ItemID),
				zap.String("product_id", ref.ProductID))
			continue
		}
		items = append(items, JoinCartItem(ref, *p))
	}

	slices.SortFunc(items, func(a, b domain.CartItem) int {
		return strings.Compare(a.ItemID, b.ItemID)
	})
	return items, nil
}

// lookupProduct collapses concurrent lookups of the same product into one
// backend call. Results are never kept after the call returns.
//
// The shared call runs detached from any one caller, bounded by
// lookupTimeout; each caller stops waiting when its own ctx ends.
func (s *CartService) lookupProduct(ctx context.Context, productID, storeID string) (*domain.Product, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.lookups.DoChan(storeID+"/"+productID, func() (any, error) {
		lctx, cancel := context.WithTimeout(shared, lookupTimeout)
		defer cancel()

		p, err := s.products.GetProduct(lctx, productID, storeID)
		if err != nil {
			return nil, fmt.Errorf("%w: get product %s: %w", ErrExternalService, productID, err)
		}
		return p, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	p, _ := res.Val.(*domain.Product)
	if p == nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
