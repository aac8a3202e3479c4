package svgscene

import (
	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
)

// Cache stores the definitions already resolved during one conversion,
// keyed by the identity of their source element.
// Shared definitions (masks, clip paths, filters and paint servers) are
// thus converted once and referenced by every group using them.
//
// A Cache also tracks the definitions being resolved: a reference to
// one of them is a cycle, which fails the resolution.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	masks     map[*svgtree.Node]*Mask
	clipPaths map[*svgtree.Node]*ClipPath
	filters   map[*svgtree.Node]*Filter
	paints    map[*svgtree.Node]Paint

	pending map[*svgtree.Node]bool

	stats CacheStats
}

// CacheStats reports how the cache was used.
type CacheStats struct {
	Hits        int // definitions returned from the cache
	Conversions int // definitions actually converted (successfully or not)
	Cycles      int // references to a definition being resolved
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		masks:     make(map[*svgtree.Node]*Mask),
		clipPaths: make(map[*svgtree.Node]*ClipPath),
		filters:   make(map[*svgtree.Node]*Filter),
		paints:    make(map[*svgtree.Node]Paint),
		pending:   make(map[*svgtree.Node]bool),
	}
}

// Stats returns the usage counters.
func (c *Cache) Stats() CacheStats { return c.stats }

// Len returns the number of definitions stored.
func (c *Cache) Len() int {
	return len(c.masks) + len(c.clipPaths) + len(c.filters) + len(c.paints)
}

// resolve implements the resolution protocol shared by every kind of definition:
// a cached value is returned as is, a pending one is a cycle and fails,
// otherwise `convert` is called with the node marked as pending.
// Only successful conversions are stored.
func resolve[T any](c *Cache, store map[*svgtree.Node]T, node *svgtree.Node, convert func() (T, bool)) (T, bool) {
	if def, ok := store[node]; ok {
		c.stats.Hits++
		svglog.Logger().Debug("definition cache hit", "element", node.String())
		return def, true
	}
	if c.pending[node] {
		c.stats.Cycles++
		svglog.Logger().Warn("recursive reference detected, skipped", "element", node.String())
		var zero T
		return zero, false
	}

	c.pending[node] = true
	c.stats.Conversions++
	def, ok := convert()
	delete(c.pending, node)

	if ok {
		store[node] = def
	}
	return def, ok
}
