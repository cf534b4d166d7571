package storage

import (
	"container/list"
	"sync"
	"time"
)

type cacheItem struct {
	key       string
	value     interface{}
	timestamp time.Time
	element   *list.Element
}

// MemoryCache implements an LRU cache with TTL support
type MemoryCache struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	items   map[string]*cacheItem
	lruList *list.List
	hits    uint64
	misses  uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a cache without expiry
func NewMemoryCache(maxSize int) *MemoryCache {
	return NewMemoryCacheWithTTL(maxSize, 0)
}

// NewMemoryCacheWithTTL creates a cache whose entries expire ttl after they
// were last written. A non-positive maxSize disables caching.
func NewMemoryCacheWithTTL(maxSize int, ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*cacheItem),
		lruList: list.New(),
		stop:    make(chan struct{}),
	}

	if ttl > 0 && maxSize > 0 {
		go cache.cleanupRoutine()
	}

	return cache
}

func (mc *MemoryCache) Set(key string, value interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.maxSize <= 0 {
		return nil
	}

	now := mc.now()
	if item, exists := mc.items[key]; exists {
		item.value = value
		item.timestamp = now
		mc.lruList.MoveToFront(item.element)
		return nil
	}

	item := &cacheItem{key: key, value: value, timestamp: now}
	item.element = mc.lruList.PushFront(item)
	mc.items[key] = item

	for len(mc.items) > mc.maxSize {
		mc.evictOldest()
	}

	return nil
}

func (mc *MemoryCache) Get(key string) (interface{}, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, exists := mc.items[key]
	if !exists {
		mc.misses++
		return nil, false
	}

	if mc.expired(item, mc.now()) {
		mc.deleteItem(item)
		mc.misses++
		return nil, false
	}

	mc.lruList.MoveToFront(item.element)
	mc.hits++
	return item.value, true
}

// Size returns the current number of items, expired ones included until swept
func (mc *MemoryCache) Size() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

func (mc *MemoryCache) Stats() CacheStats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return CacheStats{
		Size:    len(mc.items),
		MaxSize: mc.maxSize,
		TTL:     mc.ttl.String(),
		Hits:    mc.hits,
		Misses:  mc.misses,
	}
}

// Close stops the background sweep
func (mc *MemoryCache) Close() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache) expired(item *cacheItem, now time.Time) bool {
	return mc.ttl > 0 && now.Sub(item.timestamp) > mc.ttl
}

func (mc *MemoryCache) evictOldest() {
	if element := mc.lruList.Back(); element != nil {
		mc.deleteItem(element.Value.(*cacheItem))
	}
}

func (mc *MemoryCache) deleteItem(item *cacheItem) {
	delete(mc.items, item.key)
	mc.lruList.Remove(item.element)
}

func (mc *MemoryCache) cleanupRoutine() {
	ticker := time.NewTicker(mc.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.cleanupExpired()
		}
	}
}

func (mc *MemoryCache) cleanupExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for element := mc.lruList.Back(); element != nil; {
		prev := element.Prev()
		if item := element.Value.(*cacheItem); mc.expired(item, now) {
			mc.deleteItem(item)
		}
		element = prev
	}
}
