package embed

import "container/list"

// fifoCache is a process-local, insertion-ordered map with a fixed
// capacity. On overflow it evicts the oldest entry — pure FIFO, with
// no recency promotion on read. This is deliberately not an LRU: a
// cache hit never changes an entry's eviction order.
type fifoCache struct {
	capacity int
	order    *list.List // front = oldest
	entries  map[string]*list.Element
}

type fifoEntry struct {
	key   string
	value []float32
}

func newFIFOCache(capacity int) *fifoCache {
	return &fifoCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *fifoCache) get(key string) ([]float32, bool) {
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*fifoEntry).value, true
}

func (c *fifoCache) put(key string, value []float32) {
	if _, ok := c.entries[key]; ok {
		return // identical prefixed text always maps to the same vector
	}
	el := c.order.PushBack(&fifoEntry{key: key, value: value})
	c.entries[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*fifoEntry).key)
		}
	}
}

func (c *fifoCache) len() int {
	return c.order.Len()
}
