package port

import (
	"context"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

type CheckoutPublisher interface {
	PublishCartCheckedOut(ctx context.Context, cart domain.Cart, sale domain.Sale, items []domain.CartItem) error
}
