package cache

import (
	"container/list"
	"sync"
)

// NamespaceLRU is a namespace-based LRU cache implementation
type NamespaceLRU struct {
	capacity int
	items    map[string]*list.Element
	queue    *list.List
	mutex    sync.Mutex
}

// Pinner is implemented by values that must stay resident while in use.
// Pinned entries are skipped by eviction, so the cache may briefly hold
// more than its capacity.
type Pinner interface {
	Pinned() bool
}

type entry struct {
	namespace string
	key       string
	value     interface{}
}

// NewNamespaceLRU creates a new namespace-based LRU cache with specified capacity
func NewNamespaceLRU(capacity int) *NamespaceLRU {
	if capacity < 1 {
		capacity = 1
	}
	return &NamespaceLRU{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		queue:    list.New(),
	}
}

func compositeKey(namespace, key string) string {
	return namespace + ":" + key
}

// Set adds or updates a key-value pair in the cache with a namespace
func (c *NamespaceLRU) Set(namespace, key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.set(namespace, key, value)
}

func (c *NamespaceLRU) set(namespace, key string, value interface{}) {
	ck := compositeKey(namespace, key)
	if element, exists := c.items[ck]; exists {
		c.queue.MoveToFront(element)
		element.Value.(*entry).value = value
		return
	}

	element := c.queue.PushFront(&entry{
		namespace: namespace,
		key:       key,
		value:     value,
	})
	c.items[ck] = element

	if c.queue.Len() > c.capacity {
		c.evict()
	}
}

// Get retrieves a value from the cache by namespace and key.
// A hit marks the entry as most recently used.
func (c *NamespaceLRU) Get(namespace, key string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.get(namespace, key)
}

func (c *NamespaceLRU) get(namespace, key string) (interface{}, bool) {
	element, exists := c.items[compositeKey(namespace, key)]
	if !exists {
		return nil, false
	}
	c.queue.MoveToFront(element)
	return element.Value.(*entry).value, true
}

// GetOrLoad returns the cached value or stores the result of load.
// load runs under the cache lock, so concurrent misses on the same key
// produce a single value; it must not call back into the cache.
func (c *NamespaceLRU) GetOrLoad(namespace, key string, load func() (interface{}, error)) (interface{}, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if value, ok := c.get(namespace, key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		return nil, err
	}
	c.set(namespace, key, value)
	return value, nil
}

// Invalidate removes an item from the cache by namespace and key
func (c *NamespaceLRU) Invalidate(namespace, key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ck := compositeKey(namespace, key)
	if element, exists := c.items[ck]; exists {
		c.queue.Remove(element)
		delete(c.items, ck)
	}
}

// Size returns the current number of items in the cache
func (c *NamespaceLRU) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.queue.Len()
}

// evict removes least recently used items until the cache is back within
// capacity. Pinned entries and the newest entry are never removed.
func (c *NamespaceLRU) evict() {
	front := c.queue.Front()
	for element := c.queue.Back(); element != nil && element != front && c.queue.Len() > c.capacity; {
		prev := element.Prev()
		e := element.Value.(*entry)
		if p, ok := e.value.(Pinner); !ok || !p.Pinned() {
			c.queue.Remove(element)
			delete(c.items, compositeKey(e.namespace, e.key))
		}
		element = prev
	}
}
