package utils

import (
	"context"
	"sync"
	"time"
)

// MemoryDeduper is the single-process RedisDeduper used when Redis is not
// configured.
type MemoryDeduper struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	seen      map[string]time.Time
	nextSweep time.Time
}

// dedupeSweepEvery bounds how often MarkOnce scans for expired keys.
const dedupeSweepEvery = time.Minute

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryDeduper{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

// MarkOnce reports true the first time key is seen within the TTL.
func (d *MemoryDeduper) MarkOnce(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.After(d.nextSweep) {
		d.sweep(now)
	}
	if exp, ok := d.seen[key]; ok && !now.After(exp) {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

func (d *MemoryDeduper) sweep(now time.Time) {
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
	}
	d.nextSweep = now.Add(min(d.ttl, dedupeSweepEvery))
}

func (d *MemoryDeduper) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
	return nil
}

type slotCounter struct {
	inUse   int
	expires time.Time
}

// MemoryLimiter is the single-process RedisLimiter. Like the Redis counter,
// a key's slots all expire ttl after the first one was taken.
type MemoryLimiter struct {
	mu    sync.Mutex
	limit int
	ttl   time.Duration
	now   func() time.Time
	slots map[string]slotCounter
}

func NewMemoryLimiter(limit int, ttl time.Duration) *MemoryLimiter {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &MemoryLimiter{limit: limit, ttl: ttl, now: time.Now, slots: make(map[string]slotCounter)}
}

func (l *MemoryLimiter) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	sc, ok := l.slots[key]
	if !ok || now.After(sc.expires) {
		sc = slotCounter{expires: now.Add(l.ttl)}
	}
	if l.limit > 0 && sc.inUse >= l.limit {
		return false, nil
	}
	sc.inUse++
	l.slots[key] = sc
	return true, nil
}

func (l *MemoryLimiter) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	sc, ok := l.slots[key]
	if !ok || sc.inUse <= 1 {
		delete(l.slots, key)
		return nil
	}
	sc.inUse--
	l.slots[key] = sc
	return nil
}
