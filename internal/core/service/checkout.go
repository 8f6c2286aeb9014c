package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

// Checkout turns the cart into a sale: stock is written for every line, then
// the sale is recorded, then the cart is deleted. The cart survives any
// failure before the sale is confirmed. Stock already written on a failed
// checkout stays written unless the service runs WithCompensation.
// Stock may go negative and an empty cart records an empty sale unless the
// service runs WithStockGuard.
//
// result.Success is true exactly when the sale was recorded.
func (s *CartService) Checkout(ctx context.Context, cartID, storeID string) (domain.CheckoutResult, error) {
	var result domain.CheckoutResult
	logger := s.logger.With(zap.String("store_id", storeID), zap.String("cart_id", cartID))

	release, err := s.locks.acquire(ctx, cartID)
	if err != nil {
		return result, err
	}
	defer release()

	cart, err := s.store.GetCart(ctx, cartID, storeID)
	if err != nil {
		return result, fmt.Errorf("%w: get cart: %w", ErrCheckoutFailed, err)
	}
	if cart == nil {
		return result, fmt.Errorf("%w: cart %s: %w", ErrCheckoutFailed, cartID, ErrCartNotFound)
	}

	items, err := s.GetCartItems(ctx, cartID, storeID)
	if err != nil {
		return result, fmt.Errorf("%w: read items: %w", ErrCheckoutFailed, err)
	}
	if s.stockGuard {
		if err := guardStock(items); err != nil {
			return result, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
		}
	}

	sg := &saga{logger: logger}
	for _, it := range items {
		adj := domain.StockAdjustment{
			ProductID: it.Product.ID,
			Previous:  it.Product.Stock,
			Next:      it.Product.Stock - it.Quantity,
		}
		sg.add(sagaStep{
			name: "set stock " + adj.ProductID,
			run: func(ctx context.Context) error {
				if err := s.products.SetStock(ctx, adj.ProductID, storeID, adj.Next); err != nil {
					return fmt.Errorf("%w: %w", ErrExternalService, err)
				}
				result.Adjustments = append(result.Adjustments, adj)
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.products.SetStock(ctx, adj.ProductID, storeID, adj.Previous)
			},
		})
	}

	var sale *domain.Sale
	sg.add(sagaStep{
		name: "record sale",
		run: func(ctx context.Context) error {
			recorded, err := s.products.RecordSale(ctx, storeID, Total(items), saleItems(items))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrExternalService, err)
			}
			if recorded == nil {
				return fmt.Errorf("%w: no sale returned", ErrExternalService)
			}
			sale = recorded
			return nil
		},
	})

	if err := sg.run(ctx); err != nil {
		logger.Warn("checkout failed",
			zap.Int("stock_writes", len(result.Adjustments)),
			zap.Error(err))

		if s.compensate && len(result.Adjustments) > 0 {
			rbErr := sg.rollback(context.WithoutCancel(ctx))
			result.Compensated = rbErr == nil
			if rbErr != nil {
				logger.Error("stock left inconsistent after failed checkout", zap.Error(rbErr))
			}
		}
		return result, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}

	result.Success = true
	result.Sale = sale
	logger.Info("sale recorded", zap.String("sale_id", sale.ID), zap.String("total", sale.Total.StringFixed(2)))

	// the sale stands even if the cart cannot be removed
	if err := s.store.DeleteCart(ctx, cartID, storeID); err != nil {
		logger.Error("delete checked out cart", zap.Error(err))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCartCheckedOut(ctx, *cart, *sale, items); err != nil {
			logger.Warn("publish cart checked out", zap.Error(err))
		}
	}

	return result, nil
}

func guardStock(items []domain.CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	for _, it := range items {
		if it.Product.Stock < it.Quantity {
			return fmt.Errorf("product %s has %d, need %d: %w",
				it.Product.ID, it.Product.Stock, it.Quantity, ErrInsufficientStock)
		}
	}
	return nil
}

func saleItems(items []domain.CartItem) []domain.SaleItem {
	out := make([]domain.SaleItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.SaleItem{
			ProductID: it.Product.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.Product.Price,
		})
	}
	return out
}
