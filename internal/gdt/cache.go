package gdt

import (
	"container/list"
	"sync"

	"github.com/harrison/capstudy/internal/models"
)

// Cache memoizes parsed descriptors by their exact input string.
// A zero capacity means unbounded; a positive capacity evicts the least
// recently used entry. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	key  string
	desc *models.ToleranceDescriptor
}

// NewCache creates a cache holding at most capacity entries (0 = unbounded).
func NewCache(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached descriptor for key.
func (c *Cache) Get(key string) (*models.ToleranceDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).desc, true
}

// PutIfAbsent stores desc under key unless another caller got there first,
// and returns whichever descriptor is now cached. Two goroutines parsing the
// same string therefore still observe one shared descriptor.
func (c *Cache) PutIfAbsent(key string, desc *models.ToleranceDescriptor) *models.ToleranceDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).desc
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, desc: desc})
	if c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return desc
}

// Len returns the number of cached descriptors.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops every cached descriptor.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
