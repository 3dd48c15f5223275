// Package agent implements the simulated forager: position, energy,
// trajectory bookkeeping, and the sensor vector fed to a policy.
package agent

import (
	"fmt"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/maze"
)

// Action is one discrete move per tick.
type Action int

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
	ActionStay
)

// NumActions is the policy output width.
const NumActions = 5

// NumInputs is the sensor vector width.
const NumInputs = 12

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionStay:
		return "stay"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Delta returns the grid displacement for the action.
func (a Action) Delta() (dx, dy int) {
	switch a {
	case ActionUp:
		return 0, -1
	case ActionDown:
		return 0, 1
	case ActionLeft:
		return -1, 0
	case ActionRight:
		return 1, 0
	}
	return 0, 0
}

// Agent is a single forager inside one rollout. Not safe for concurrent use;
// each rollout owns its agent.
type Agent struct {
	maze *maze.Maze
	pos  maze.Point

	Energy    float64
	maxEnergy float64

	stepCost      float64
	collisionCost float64
	smallEnergy   float64
	bigEnergy     float64

	Alive          bool
	Steps          int
	Collisions     int
	CollectedSmall int
	CollectedBig   int

	Trajectory     []maze.Point
	CollisionTicks []int
	Visited        map[maze.Point]int
}

// New places an agent at the maze start. Starting inside a wall is a
// configuration error, not a runtime condition.
func New(m *maze.Maze, cfg config.AgentConfig) (*Agent, error) {
	start := m.Start()
	if m.IsWall(start.X, start.Y) {
		return nil, fmt.Errorf("agent: start cell (%d,%d) is a wall", start.X, start.Y)
	}
	a := &Agent{
		maze:          m,
		pos:           start,
		Energy:        cfg.MaxEnergy,
		maxEnergy:     cfg.MaxEnergy,
		stepCost:      cfg.StepCost,
		collisionCost: cfg.CollisionCost,
		smallEnergy:   cfg.SmallFoodEnergy,
		bigEnergy:     cfg.BigFoodEnergy,
		Alive:         true,
		Trajectory:    []maze.Point{start},
		Visited:       map[maze.Point]int{start: 1},
	}
	return a, nil
}

// Pos returns the current cell.
func (a *Agent) Pos() maze.Point { return a.pos }

// UniqueCells counts distinct cells visited so far.
func (a *Agent) UniqueCells() int { return len(a.Visited) }

// EnergyRatio returns energy as a fraction of maximum, guarded for zero max.
func (a *Agent) EnergyRatio() float64 {
	if a.maxEnergy <= 0 {
		return 0
	}
	return a.Energy / a.maxEnergy
}

// Step applies one action. Dead agents ignore further actions. A move into a
// wall is a collision: position holds, the collision cost is deducted, and the
// tick is still recorded so revisit and stagnation signals see it.
func (a *Agent) Step(act Action) {
	if !a.Alive {
		return
	}
	if a.Energy <= 0 {
		a.Alive = false
		return
	}

	a.Steps++
	a.Energy -= a.stepCost

	dx, dy := act.Delta()
	next := maze.Point{X: a.pos.X + dx, Y: a.pos.Y + dy}

	if act != ActionStay && a.maze.IsWall(next.X, next.Y) {
		a.Collisions++
		a.CollisionTicks = append(a.CollisionTicks, a.Steps)
		a.Energy -= a.collisionCost
		a.record(a.pos)
		if a.Energy <= 0 {
			a.Alive = false
		}
		return
	}

	if act != ActionStay {
		a.pos = next
	}
	a.record(a.pos)

	if food := a.maze.FoodAt(a.pos.X, a.pos.Y); food != nil {
		food.Eaten = true
		gain := a.smallEnergy
		if food.Size == maze.BigFood {
			a.CollectedBig++
			gain = a.bigEnergy
		} else {
			a.CollectedSmall++
		}
		a.Energy += gain
		if a.Energy > a.maxEnergy {
			a.Energy = a.maxEnergy
		}
	}

	if a.Energy <= 0 {
		a.Alive = false
	}
}

func (a *Agent) record(p maze.Point) {
	a.Trajectory = append(a.Trajectory, p)
	a.Visited[p]++
}

// NearestFood returns the closest uneaten item by Manhattan distance, or nil.
// Ties resolve to the first item in list order.
func (a *Agent) NearestFood() *maze.FoodItem {
	var nearest *maze.FoodItem
	best := int(^uint(0) >> 1)
	for i := range a.maze.Food {
		f := &a.maze.Food[i]
		if f.Eaten {
			continue
		}
		if d := a.pos.ManhattanTo(f.Pos); d < best {
			best = d
			nearest = f
		}
	}
	return nearest
}

// wallDistance casts a ray from the current cell and returns the step count to
// the first wall, capped at the maze extent.
func (a *Agent) wallDistance(act Action) int {
	dx, dy := act.Delta()
	x, y := a.pos.X, a.pos.Y
	maxDist := a.maze.MaxDimension()
	for dist := 1; dist <= maxDist; dist++ {
		x += dx
		y += dy
		if a.maze.IsWall(x, y) {
			return dist
		}
	}
	return maxDist
}
