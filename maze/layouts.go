package maze

import (
	"math/rand"
	"strings"
)

// DefaultLayout is the training corridor maze: long horizontal runs joined by
// narrow gaps, start near the center.
func DefaultLayout() []string {
	return []string{
		"11111111111111111111111111",
		"10000000000001000000000001",
		"10111111111010111110111101",
		"10000000001000000010000001",
		"11111011111011111111101111",
		"10000000000000000000000001",
		"10111111111111111110111111",
		"10000000000000000000000001",
		"11111011111111111111111101",
		"1000000000000S000000000001",
		"10111111111111111110111111",
		"10000000000000000000000001",
		"11111111111011111111111101",
		"10000000000000000000000001",
		"10111111111111111111111111",
		"10000000000000000000000001",
		"10111111111011111111111011",
		"10000000000000000000000001",
		"10000000000000000000000001",
		"11111111111111111111111111",
	}
}

// OpenLayout builds a bordered empty grid with the start at the center.
// Useful for sanity checks and scripted-policy tests.
func OpenLayout(rows, cols int) []string {
	if rows < 3 {
		rows = 3
	}
	if cols < 3 {
		cols = 3
	}
	layout := make([]string, rows)
	layout[0] = strings.Repeat("1", cols)
	layout[rows-1] = layout[0]
	interior := "1" + strings.Repeat("0", cols-2) + "1"
	for y := 1; y < rows-1; y++ {
		layout[y] = interior
	}
	sy, sx := rows/2, cols/2
	row := []byte(layout[sy])
	row[sx] = SymbolStart
	layout[sy] = string(row)
	return layout
}

// RandomLayout scatters interior walls over a bordered grid at the given
// density, keeping the center start cell and its four neighbors clear so the
// agent is never boxed in on tick zero. Deterministic for a fixed rng.
func RandomLayout(rows, cols int, wallDensity float64, rng *rand.Rand) []string {
	if rows < 3 {
		rows = 3
	}
	if cols < 3 {
		cols = 3
	}
	layout := OpenLayout(rows, cols)
	sy, sx := rows/2, cols/2
	grid := make([][]byte, rows)
	for y := range layout {
		grid[y] = []byte(layout[y])
	}
	for y := 1; y < rows-1; y++ {
		for x := 1; x < cols-1; x++ {
			if abs(x-sx)+abs(y-sy) <= 1 {
				continue
			}
			if rng.Float64() < wallDensity {
				grid[y][x] = SymbolWall
			}
		}
	}
	out := make([]string, rows)
	for y := range grid {
		out[y] = string(grid[y])
	}
	return out
}
