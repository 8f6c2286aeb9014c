package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/sarismart-cart/internal/adapter/idgen"
	"github.com/rl1809/sarismart-cart/internal/adapter/storage"
	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/core/service"
)

const (
	storeID       = "stress-store"
	productID     = "rice-5kg"
	initialStock  = 100
	totalRequests = 50
)

// catalog is a single-product backend kept in process so the run only
// depends on Redis.
type catalog struct {
	mu    sync.Mutex
	stock int
	sales int
}

func (c *catalog) GetProduct(_ context.Context, id, store string) (*domain.Product, error) {
	if id != productID || store != storeID {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return &domain.Product{ID: id, StoreID: store, Name: "Rice 5kg", Price: decimal.RequireFromString("12.50"), Stock: c.stock}, nil
}

func (c *catalog) SetStock(_ context.Context, _, _ string, stock int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock = stock
	return nil
}

func (c *catalog) RecordSale(_ context.Context, store string, total decimal.Decimal, items []domain.SaleItem) (*domain.Sale, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sales++
	return &domain.Sale{ID: uuid.NewString(), StoreID: store, Total: total, ItemCount: len(items), CreatedAt: time.Now()}, nil
}

func main() {
	ctx := context.Background()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Isolated key space per run
	prefix := "stress-" + uuid.NewString()[:8]
	store := storage.NewRedisStore(rdb, idgen.UUID{}, prefix)
	defer store.ClearAll(ctx)

	products := &catalog{stock: initialStock}
	cartService := service.NewCartService(store, products)

	cart, err := cartService.CreateCart(ctx, storeID, "")
	if err != nil {
		log.Fatalf("failed to create cart: %v", err)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := cartService.AddItemToCart(ctx, cart.ID, storeID, productID, 1); err != nil {
				failCount.Add(1)
				return
			}
			successCount.Add(1)
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	items, err := cartService.GetCartItems(ctx, cart.ID, storeID)
	if err != nil {
		log.Fatalf("failed to read items: %v", err)
	}
	stored, err := cartService.GetCart(ctx, cart.ID, storeID)
	if err != nil || stored == nil {
		log.Fatalf("failed to read cart: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Lines in cart:    %d\n", len(items))
	fmt.Printf("Item count:       %d\n", stored.ItemCount)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if len(items) == 1 && items[0].Quantity == totalRequests && stored.ItemCount == 1 {
		fmt.Printf("PASS: one line with quantity %d\n", totalRequests)
	} else {
		fmt.Printf("FAIL: expected one line with quantity %d, got %d lines\n", totalRequests, len(items))
		for _, it := range items {
			fmt.Printf("  %s x%d\n", it.Product.ID, it.Quantity)
		}
	}

	result, err := cartService.Checkout(ctx, cart.ID, storeID)
	if err != nil {
		fmt.Printf("FAIL: checkout: %v\n", err)
		return
	}

	products.mu.Lock()
	finalStock := products.stock
	products.mu.Unlock()
	fmt.Printf("Sale total:       %s\n", result.Sale.Total.StringFixed(2))
	fmt.Printf("Final stock:      %d\n", finalStock)

	if finalStock == initialStock-totalRequests {
		fmt.Println("PASS: stock decremented by the cart quantity")
	} else {
		fmt.Printf("FAIL: expected stock %d, got %d\n", initialStock-totalRequests, finalStock)
	}
}
