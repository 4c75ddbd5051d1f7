package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker serialises holders of the same key inside one process.
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*memoryEntry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{keys: map[string]*memoryEntry{}}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	defer observeWait("memory", time.Now())

	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &memoryEntry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

func (l *MemoryLocker) unref(key string, e *memoryEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
	l.mu.Unlock()
}
