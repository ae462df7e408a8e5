package expression

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// DefaultCacheSize bounds the package-level program cache.
const DefaultCacheSize = 256

// Cache is a bounded LRU of compiled programs keyed by source. Safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	lru     *list.List
	maxSize int
	hits    int64
	misses  int64
}

type cacheEntry struct {
	source  string
	program *vm.Program
}

// NewCache creates a cache holding at most maxSize programs. A
// non-positive size uses DefaultCacheSize.
func NewCache(maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		index:   make(map[string]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached program for source, marking it most recently
// used.
func (c *Cache) Get(source string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.index[source]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program, true
}

// Put stores program, evicting the least recently used entries when full.
func (c *Cache) Put(source string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[source]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).program = program
		return
	}
	c.index[source] = c.lru.PushFront(&cacheEntry{source: source, program: program})
	c.evict()
}

// Resize changes the capacity (minimum 1), evicting immediately if needed.
func (c *Cache) Resize(maxSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxSize = max(maxSize, 1)
	c.evict()
}

// Clear drops every entry. Statistics are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = make(map[string]*list.Element)
	c.lru.Init()
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats reports the size, hit and miss counts, and hit ratio.
func (c *Cache) Stats() (size int, hits, misses int64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total := c.hits + c.misses; total > 0 {
		ratio = float64(c.hits) / float64(total)
	}
	return c.lru.Len(), c.hits, c.misses, ratio
}

func (c *Cache) String() string {
	size, hits, misses, ratio := c.Stats()
	return fmt.Sprintf("expression.Cache{size=%d, hits=%d, misses=%d, hit_ratio=%.2f%%}", size, hits, misses, ratio*100)
}

// evict must be called with mu held.
func (c *Cache) evict() {
	for c.lru.Len() > c.maxSize {
		back := c.lru.Back()
		delete(c.index, back.Value.(*cacheEntry).source)
		c.lru.Remove(back)
	}
}
