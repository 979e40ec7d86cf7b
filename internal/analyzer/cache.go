package analyzer

import (
	"container/list"
	"sync"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// DefaultCacheSize is the number of results kept when no size is configured.
const DefaultCacheSize = 64

// ResultCache keeps the most recent results keyed by drawing path, evicting
// the least recently used entry once full. It is safe for concurrent use.
// A cache of size 0 stores nothing.
type ResultCache struct {
	mu      sync.Mutex
	size    int
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	path   string
	result *model.DrawingAnalysisResult
}

// NewResultCache returns a cache holding at most size results. A negative
// size is treated as 0.
func NewResultCache(size int) *ResultCache {
	return &ResultCache{
		size:    max(size, 0),
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Put stores result under path, replacing any previous result.
func (c *ResultCache) Put(path string, result *model.DrawingAnalysisResult) {
	if c.size == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[path]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return
	}

	c.entries[path] = c.order.PushFront(&cacheEntry{path: path, result: result})
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).path)
	}
}

// Get returns the result stored under path.
func (c *ResultCache) Get(path string) (*model.DrawingAnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result, true
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
