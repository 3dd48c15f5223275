package maze

import (
	"strconv"
	"strings"
	"sync"
)

const defaultCacheSize = 64

// DistanceCache memoizes BFS distance maps keyed by layout content and start
// cell. It is safe for concurrent use and evicts the oldest entry when full,
// so long runs over randomized layouts stay bounded.
type DistanceCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]map[Point]int
	order   []string
}

// NewDistanceCache returns a cache holding at most size entries.
// A size of zero or less falls back to the default.
func NewDistanceCache(size int) *DistanceCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	return &DistanceCache{
		maxSize: size,
		entries: make(map[string]map[Point]int, size),
	}
}

// Len returns the number of cached distance maps.
func (c *DistanceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Distances returns the BFS distance map for (layout, start), computing and
// caching it on first use. Callers must treat the returned map as read-only.
func (c *DistanceCache) Distances(layout []string, start Point, isWall func(x, y int) bool) map[Point]int {
	key := cacheKey(layout, start)

	c.mu.Lock()
	if d, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return d
	}
	c.mu.Unlock()

	d := bfsDistances(layout, start, isWall)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	if len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = d
	c.order = append(c.order, key)
	return d
}

func cacheKey(layout []string, start Point) string {
	var b strings.Builder
	for _, row := range layout {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteString(strconv.Itoa(start.X))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(start.Y))
	return b.String()
}

// bfsDistances runs a breadth-first flood fill over walkable cells.
// Unreachable cells do not appear in the result.
func bfsDistances(layout []string, start Point, isWall func(x, y int) bool) map[Point]int {
	dist := map[Point]int{start: 0}
	queue := []Point{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		d := dist[p]
		for _, n := range [4]Point{
			{p.X, p.Y - 1},
			{p.X, p.Y + 1},
			{p.X - 1, p.Y},
			{p.X + 1, p.Y},
		} {
			if isWall(n.X, n.Y) {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = d + 1
			queue = append(queue, n)
		}
	}
	return dist
}
