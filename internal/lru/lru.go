// Package lru is a size bounded least recently used cache whose entries may expire.
package lru

import (
	"container/list"
	"sync"
	"time"
)

// EvictCallback is used to get a callback when a cache entry is evicted
type EvictCallback[K comparable, V any] func(key K, value V)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LRU implements a thread-safe LRU with expirable entries.
// Expired entries are dropped when they are read or listed.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	size      int
	evictList *list.List
	items     map[K]*list.Element
	onEvict   EvictCallback[K, V]
	now       func() time.Time
}

// NewLRU returns a cache holding at most size entries, size 0 makes it unbounded
func NewLRU[K comparable, V any](size int, onEvict EvictCallback[K, V]) *LRU[K, V] {
	if size < 0 {
		size = 0
	}

	return &LRU[K, V]{
		size:      size,
		evictList: list.New(),
		items:     make(map[K]*list.Element),
		onEvict:   onEvict,
		now:       time.Now,
	}
}

// Add adds a value to the cache, a ttl of 0 never expires. Returns true if an eviction occurred.
func (c *LRU[K, V]) Add(key K, value V, ttl time.Duration) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToBack(elem)
		ent := elem.Value.(*entry[K, V])
		ent.value, ent.expiresAt = value, expiresAt
		return false
	}

	c.items[key] = c.evictList.PushBack(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})

	if c.size > 0 && c.evictList.Len() > c.size {
		c.removeElement(c.evictList.Front())
		return true
	}
	return false
}

// Get looks up a key's value from the cache and marks it as recently used
func (c *LRU[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return value, false
	}

	ent := elem.Value.(*entry[K, V])
	if ent.expired(c.now()) {
		c.removeElement(elem)
		return value, false
	}

	c.evictList.MoveToBack(elem)
	return ent.value, true
}

// Remove removes the provided key from the cache, returning if the key was contained
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
		return true
	}
	return false
}

// Keys returns the live keys, from oldest to newest
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleteExpired()
	keys := make([]K, 0, c.evictList.Len())
	for elem := c.evictList.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[K, V]).key)
	}
	return keys
}

// Len returns the number of live entries
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleteExpired()
	return c.evictList.Len()
}

func (c *LRU[K, V]) deleteExpired() {
	now := c.now()
	for elem := c.evictList.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*entry[K, V]).expired(now) {
			c.removeElement(elem)
		}
		elem = next
	}
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	ent := c.evictList.Remove(elem).(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
