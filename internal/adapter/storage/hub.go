package storage

import (
	"context"
	"sync"

	"github.com/rl1809/sarismart-cart/internal/core/domain"
)

const subscriberBuffer = 64

// changeHub fans store notifications out to in-process subscribers.
// A subscriber that falls behind loses notifications; they only ever
// trigger a re-read, so a later one covers the gap.
type changeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.CartChange
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[int]chan domain.CartChange)}
}

func (h *changeHub) subscribe(ctx context.Context) <-chan domain.CartChange {
	ch := make(chan domain.CartChange, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

func (h *changeHub) publish(change domain.CartChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
