package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/sarismart-cart/internal/port"
)

// MissingProductPolicy decides what the read model does with an item whose
// product no longer resolves.
type MissingProductPolicy int

const (
	// DropMissing hides the item as if it had been removed.
	DropMissing MissingProductPolicy = iota
	// FailOnMissing fails the whole read with ErrProductNotFound.
	FailOnMissing
)

func (p MissingProductPolicy) String() string {
	switch p {
	case FailOnMissing:
		return "fail"
	default:
		return "drop"
	}
}

func ParseMissingProductPolicy(s string) (MissingProductPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return DropMissing, nil
	case "fail":
		return FailOnMissing, nil
	default:
		return DropMissing, fmt.Errorf("unknown missing product policy %q", s)
	}
}

type Option func(*CartService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *CartService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CartService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithMissingProductPolicy(p MissingProductPolicy) Option {
	return func(s *CartService) {
		s.missing = p
	}
}

// WithCompensation makes a failed checkout restore the stock it already wrote.
func WithCompensation(enabled bool) Option {
	return func(s *CartService) {
		s.compensate = enabled
	}
}

// WithStockGuard makes checkout refuse an empty cart and any line asking for
// more than the product's stock, before anything is written.
func WithStockGuard(enabled bool) Option {
	return func(s *CartService) {
		s.stockGuard = enabled
	}
}

func WithPublisher(p port.CheckoutPublisher) Option {
	return func(s *CartService) {
		s.publisher = p
	}
}

// WithRefreshInterval makes item watchers re-read product data periodically,
// so price and stock changes show up without a cart write. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *CartService) {
		s.refresh = d
	}
}

// WithLookupLimit caps concurrent product lookups per projection.
func WithLookupLimit(n int) Option {
	return func(s *CartService) {
		if n > 0 {
			s.lookupLimit = n
		}
	}
}
