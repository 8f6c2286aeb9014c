package service

import (
	"context"
	"sync"
)

// cartLocks serializes work per cart id. Entries are dropped once nobody
// holds or waits for them.
type cartLocks struct {
	mu    sync.Mutex
	locks map[string]*cartLock
}

type cartLock struct {
	ch   chan struct{}
	refs int
}

func newCartLocks() *cartLocks {
	return &cartLocks{locks: make(map[string]*cartLock)}
}

func (l *cartLocks) acquire(ctx context.Context, cartID string) (func(), error) {
	l.mu.Lock()
	cl, ok := l.locks[cartID]
	if !ok {
		cl = &cartLock{ch: make(chan struct{}, 1)}
		l.locks[cartID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	select {
	case cl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(cartID, cl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-cl.ch
			l.release(cartID, cl)
		})
	}, nil
}

func (l *cartLocks) release(cartID string, cl *cartLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl.refs--
	if cl.refs == 0 {
		delete(l.locks, cartID)
	}
}

func (l *cartLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
