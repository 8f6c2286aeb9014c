package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
	"github.com/rl1809/sarismart-cart/internal/port"
)

const DefaultKeyPrefix = "sari"

const (
	fieldID        = "id"
	fieldStoreID   = "store_id"
	fieldName      = "name"
	fieldItemCount = "item_count"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// Only touches the cart hash if it still exists, so a late count update
// cannot resurrect a deleted cart.
var setItemCountScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'item_count', ARGV[1], 'updated_at', ARGV[2])
return 1
`)

var setItemQuantityScript = redis.NewScript(`
local raw = redis.call('HGET', KEYS[1], ARGV[1])
if not raw then
	return 0
end
local item = cjson.decode(raw)
item.quantity = tonumber(ARGV[2])
redis.call('HSET', KEYS[1], ARGV[1], cjson.encode(item))
return 1
`)

type redisItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// RedisStore keeps each cart in its own hash and each cart's items in one
// hash keyed by item id. Membership sets replace key scanning:
//
//	<prefix>:stores                   set of store ids
//	<prefix>:store:<store>:carts      set of cart ids
//	<prefix>:store:<store>:cart:<id>  cart hash
//	<prefix>:cart:<id>:items          item id -> JSON item
type RedisStore struct {
	client *redis.Client
	ids    port.IDGenerator
	prefix string
}

func NewRedisStore(client *redis.Client, ids port.IDGenerator, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, ids: ids, prefix: prefix}
}

func (r *RedisStore) storesKey() string {
	return r.prefix + ":stores"
}

func (r *RedisStore) storeCartsKey(storeID string) string {
	return r.prefix + ":store:" + storeID + ":carts"
}

func (r *RedisStore) cartKey(storeID, cartID string) string {
	return r.prefix + ":store:" + storeID + ":cart:" + cartID
}

func (r *RedisStore) itemsKey(cartID string) string {
	return r.prefix + ":cart:" + cartID + ":items"
}

func (r *RedisStore) changesChannel() string {
	return r.prefix + ":changes"
}

func (r *RedisStore) CreateCart(ctx context.Context, storeID, name string) (domain.Cart, error) {
	now := time.Now().UTC()
	cart := domain.Cart{
		ID:        r.ids.NewID(),
		StoreID:   storeID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.cartKey(storeID, cart.ID),
			fieldID, cart.ID,
			fieldStoreID, storeID,
			fieldName, name,
			fieldItemCount, 0,
			fieldCreatedAt, now.UnixNano(),
			fieldUpdatedAt, now.UnixNano(),
		)
		pipe.SAdd(ctx, r.storeCartsKey(storeID), cart.ID)
		pipe.SAdd(ctx, r.storesKey(), storeID)
		return nil
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}

	r.notify(ctx, domain.CartChange{StoreID: storeID, CartID: cart.ID})
	return cart, nil
}

func (r *RedisStore) ListCarts(ctx context.Context, storeID string) ([]domain.Cart, error) {
	ids, err := r.client.SMembers(ctx, r.storeCartsKey(storeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list cart ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Cart{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.cartKey(storeID, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load carts: %w", err)
	}

	carts := make([]domain.Cart, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		cart, err := decodeCart(fields)
		if err != nil {
			return nil, err
		}
		carts = append(carts, cart)
	}
	return carts, nil
}

func (r *RedisStore) GetCart(ctx context.Context, cartID, storeID string) (*domain.Cart, error) {
	fields, err := r.client.HGetAll(ctx, r.cartKey(storeID, cartID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	cart, err := decodeCart(fields)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisStore) DeleteCart(ctx context.Context, cartID, storeID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.cartKey(storeID, cartID), r.itemsKey(cartID))
		pipe.SRem(ctx, r.storeCartsKey(storeID), cartID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	r.notify(ctx, domain.CartChange{StoreID: storeID, CartID: cartID})
	return nil
}

func (r *RedisStore) SetItemCount(ctx context.Context, cartID, storeID string, count int) error {
	keys := []string{r.cartKey(storeID, cartID)}
	updated, err := setItemCountScript.Run(ctx, r.client, keys, count, time.Now().UTC().UnixNano()).Int()
	if err != nil {
		return fmt.Errorf("set item count: %w", err)
	}

	if updated == 1 {
		r.notify(ctx, domain.CartChange{StoreID: storeID, CartID: cartID})
	}
	return nil
}

func (r *RedisStore) AddItem(ctx context.Context, cartID, productID string, quantity int) (string, error) {
	itemID := r.ids.NewID()
	raw, err := json.Marshal(redisItem{ProductID: productID, Quantity: quantity})
	if err != nil {
		return "", fmt.Errorf("marshal item: %w", err)
	}

	if err := r.client.HSet(ctx, r.itemsKey(cartID), itemID, raw).Err(); err != nil {
		return "", fmt.Errorf("add item: %w", err)
	}

	r.notify(ctx, domain.CartChange{CartID: cartID})
	return itemID, nil
}

func (r *RedisStore) SetItemQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, cartID, itemID)
	}

	keys := []string{r.itemsKey(cartID)}
	updated, err := setItemQuantityScript.Run(ctx, r.client, keys, itemID, quantity).Int()
	if err != nil {
		return fmt.Errorf("set item quantity: %w", err)
	}

	if updated == 1 {
		r.notify(ctx, domain.CartChange{CartID: cartID})
	}
	return nil
}

func (r *RedisStore) RemoveItem(ctx context.Context, cartID, itemID string) error {
	removed, err := r.client.HDel(ctx, r.itemsKey(cartID), itemID).Result()
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	if removed > 0 {
		r.notify(ctx, domain.CartChange{CartID: cartID})
	}
	return nil
}

func (r *RedisStore) ListItemRefs(ctx context.Context, cartID string) ([]domain.ItemRef, error) {
	fields, err := r.client.HGetAll(ctx, r.itemsKey(cartID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	refs := make([]domain.ItemRef, 0, len(fields))
	for itemID, raw := range fields {
		var item redisItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", itemID, err)
		}
		refs = append(refs, domain.ItemRef{
			ItemID:    itemID,
			CartID:    cartID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return refs, nil
}

func (r *RedisStore) GetItemQuantity(ctx context.Context, cartID, itemID string) (int, bool, error) {
	raw, err := r.client.HGet(ctx, r.itemsKey(cartID), itemID).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get item: %w", err)
	}

	var item redisItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return 0, false, fmt.Errorf("decode item %s: %w", itemID, err)
	}
	return item.Quantity, true, nil
}

func (r *RedisStore) ClearAll(ctx context.Context) error {
	stores, err := r.client.SMembers(ctx, r.storesKey()).Result()
	if err != nil {
		return fmt.Errorf("list stores: %w", err)
	}

	keys := []string{r.storesKey()}
	for _, storeID := range stores {
		cartIDs, err := r.client.SMembers(ctx, r.storeCartsKey(storeID)).Result()
		if err != nil {
			return fmt.Errorf("list carts of %s: %w", storeID, err)
		}
		keys = append(keys, r.storeCartsKey(storeID))
		for _, cartID := range cartIDs {
			keys = append(keys, r.cartKey(storeID, cartID), r.itemsKey(cartID))
		}
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear carts: %w", err)
	}

	r.notify(ctx, domain.CartChange{})
	return nil
}

// Subscribe relays notifications published by any process sharing the Redis
// instance and prefix.
func (r *RedisStore) Subscribe(ctx context.Context) (<-chan domain.CartChange, error) {
	pubsub := r.client.Subscribe(ctx, r.changesChannel())

	// wait for the subscription to be confirmed so no write after Subscribe is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.changesChannel(), err)
	}

	out := make(chan domain.CartChange, subscriberBuffer)

	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change domain.CartChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	return out, nil
}

// notify is best effort: a lost notification delays a watcher, it never
// loses data.
func (r *RedisStore) notify(ctx context.Context, change domain.CartChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	_ = r.client.Publish(ctx, r.changesChannel(), payload).Err()
}

func decodeCart(fields map[string]string) (domain.Cart, error) {
	count, err := strconv.Atoi(fields[fieldItemCount])
	if err != nil {
		return domain.Cart{}, fmt.Errorf("decode item count of cart %s: %w", fields[fieldID], err)
	}
	created, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("decode created_at of cart %s: %w", fields[fieldID], err)
	}
	updated, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("decode updated_at of cart %s: %w", fields[fieldID], err)
	}

	return domain.Cart{
		ID:        fields[fieldID],
		StoreID:   fields[fieldStoreID],
		Name:      fields[fieldName],
		ItemCount: count,
		CreatedAt: time.Unix(0, created).UTC(),
		UpdatedAt: time.Unix(0, updated).UTC(),
	}, nil
}
