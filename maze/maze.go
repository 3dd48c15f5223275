// Package maze builds grid worlds for foraging rollouts: layout parsing,
// BFS distance maps, and food placement.
package maze

import (
	"fmt"
	"math/rand"
)

// Layout symbols.
const (
	SymbolWall      = '1'
	SymbolFloor     = '0'
	SymbolStart     = 'S'
	SymbolSmallFood = 's'
	SymbolBigFood   = 'B'
)

// FoodSize classifies a food item.
type FoodSize uint8

const (
	SmallFood FoodSize = iota
	BigFood
)

// String returns the size class name.
func (s FoodSize) String() string {
	if s == BigFood {
		return "big"
	}
	return "small"
}

// Point is a grid cell coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ManhattanTo returns the Manhattan distance to another point.
func (p Point) ManhattanTo(q Point) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// FoodItem is a single food record. Mutated only by the agent that reaches it;
// never shared across rollouts (clones deep-copy the food list).
type FoodItem struct {
	Pos   Point
	Size  FoodSize
	Eaten bool
}

// Maze is an immutable grid layout with a mutable food list scoped to one rollout.
type Maze struct {
	layout []string
	rows   int
	cols   int
	start  Point

	// Food is owned by this instance. CloneWithFreshFood copies it.
	Food []FoodItem

	cache *DistanceCache
}

// Options configures maze construction.
type Options struct {
	SmallFood       int
	BigFood         int
	MinDistance     int // BFS threshold for food cells (0 = default 5)
	RelaxedDistance int // Fallback threshold (0 = default 3)
	Spread          bool // Farthest-point sampling instead of distance stratification
	Rand            *rand.Rand
	Cache           *DistanceCache
}

// New parses a layout and populates the food list. Food symbols in the layout
// take precedence; otherwise Options counts drive algorithmic placement.
// A layout without exactly one start cell is a configuration error.
func New(layout []string, opts Options) (*Maze, error) {
	if len(layout) == 0 {
		return nil, fmt.Errorf("maze: empty layout")
	}

	cols := 0
	for _, row := range layout {
		if len(row) > cols {
			cols = len(row)
		}
	}

	m := &Maze{
		layout: layout,
		rows:   len(layout),
		cols:   cols,
		start:  Point{-1, -1},
		cache:  opts.Cache,
	}
	if m.cache == nil {
		m.cache = NewDistanceCache(defaultCacheSize)
	}

	starts := 0
	explicit := make([]FoodItem, 0)
	for y, row := range layout {
		for x, cell := range []byte(row) {
			switch cell {
			case SymbolStart:
				m.start = Point{x, y}
				starts++
			case SymbolSmallFood:
				explicit = append(explicit, FoodItem{Pos: Point{x, y}, Size: SmallFood})
			case SymbolBigFood:
				explicit = append(explicit, FoodItem{Pos: Point{x, y}, Size: BigFood})
			}
		}
	}
	if starts != 1 {
		return nil, fmt.Errorf("maze: layout must contain exactly one start cell %q, found %d", SymbolStart, starts)
	}

	if len(explicit) > 0 {
		m.Food = explicit
		return m, nil
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	if opts.Spread {
		m.placeFoodBySpread(opts.SmallFood, opts.BigFood)
	} else {
		m.placeFoodByDistance(opts, rng)
	}
	return m, nil
}

// IsWall reports whether the cell is blocked. Cells outside the grid are walls.
// This predicate is the single source of truth for walkability.
func (m *Maze) IsWall(x, y int) bool {
	if y < 0 || y >= m.rows {
		return true
	}
	if x < 0 || x >= len(m.layout[y]) {
		return true
	}
	return m.layout[y][x] == SymbolWall
}

// Rows returns the grid height.
func (m *Maze) Rows() int { return m.rows }

// Cols returns the grid width.
func (m *Maze) Cols() int { return m.cols }

// Start returns the start cell.
func (m *Maze) Start() Point { return m.start }

// MaxDimension returns the larger grid extent, never less than 1.
func (m *Maze) MaxDimension() int {
	d := m.rows
	if m.cols > d {
		d = m.cols
	}
	if d < 1 {
		d = 1
	}
	return d
}

// FoodAt returns the uneaten food item at the cell, or nil.
func (m *Maze) FoodAt(x, y int) *FoodItem {
	for i := range m.Food {
		f := &m.Food[i]
		if !f.Eaten && f.Pos.X == x && f.Pos.Y == y {
			return f
		}
	}
	return nil
}

// RemainingFood counts uneaten items.
func (m *Maze) RemainingFood() int {
	n := 0
	for i := range m.Food {
		if !m.Food[i].Eaten {
			n++
		}
	}
	return n
}

// CloneWithFreshFood returns an independent rollout copy: the food list is
// deep-copied while the layout and distance cache are shared read-only.
func (m *Maze) CloneWithFreshFood() *Maze {
	clone := &Maze{
		layout: m.layout,
		rows:   m.rows,
		cols:   m.cols,
		start:  m.start,
		cache:  m.cache,
		Food:   make([]FoodItem, len(m.Food)),
	}
	copy(clone.Food, m.Food)
	for i := range clone.Food {
		clone.Food[i].Eaten = false
	}
	return clone
}

// Distances returns the BFS distance map from the start cell, memoized in the
// shared cache. Unreachable cells are absent.
func (m *Maze) Distances() map[Point]int {
	return m.cache.Distances(m.layout, m.start, m.IsWall)
}

// WalkableCells returns every non-wall cell in scan order.
func (m *Maze) WalkableCells() []Point {
	cells := make([]Point, 0, m.rows*m.cols)
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.cols; x++ {
			if !m.IsWall(x, y) {
				cells = append(cells, Point{x, y})
			}
		}
	}
	return cells
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
