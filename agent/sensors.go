package agent

import "github.com/pthm-cable/forage/maze"

// Sensor vector layout. Everything is pre-normalized so the policy never sees
// raw grid coordinates.
//
//	0-3  wall ray distances (up, down, left, right) / max dimension
//	4-5  signed offset to nearest food (dx, dy) / (rows + cols)
//	6    Manhattan distance to nearest food, normalized, 1.0 when none left
//	7    nearest food size flag (1.0 big, 0.0 small or none)
//	8    energy critical flag (ratio < 0.25)
//	9    energy healthy flag (ratio > 0.75)
//	10   revisit saturation for the current cell (visits / 10, capped)
//	11   bias, always 1.0
const (
	sensorWallUp = iota
	sensorWallDown
	sensorWallLeft
	sensorWallRight
	sensorFoodDX
	sensorFoodDY
	sensorFoodDist
	sensorFoodSize
	sensorEnergyCritical
	sensorEnergyHealthy
	sensorRevisit
	sensorBias
)

const revisitSaturation = 10.0

// Sensors fills out (allocating when nil) and returns the 12-input vector for
// the current tick.
func (a *Agent) Sensors(out []float64) []float64 {
	if cap(out) < NumInputs {
		out = make([]float64, NumInputs)
	}
	out = out[:NumInputs]

	maxDim := float64(a.maze.MaxDimension())
	out[sensorWallUp] = clamp01(float64(a.wallDistance(ActionUp)) / maxDim)
	out[sensorWallDown] = clamp01(float64(a.wallDistance(ActionDown)) / maxDim)
	out[sensorWallLeft] = clamp01(float64(a.wallDistance(ActionLeft)) / maxDim)
	out[sensorWallRight] = clamp01(float64(a.wallDistance(ActionRight)) / maxDim)

	if food := a.NearestFood(); food != nil {
		span := float64(a.maze.Rows() + a.maze.Cols())
		if span < 1 {
			span = 1
		}
		dx := float64(food.Pos.X - a.pos.X)
		dy := float64(food.Pos.Y - a.pos.Y)
		out[sensorFoodDX] = dx / span
		out[sensorFoodDY] = dy / span
		out[sensorFoodDist] = clamp01(float64(a.pos.ManhattanTo(food.Pos)) / span)
		if food.Size == maze.BigFood {
			out[sensorFoodSize] = 1.0
		} else {
			out[sensorFoodSize] = 0.0
		}
	} else {
		out[sensorFoodDX] = 0.0
		out[sensorFoodDY] = 0.0
		out[sensorFoodDist] = 1.0
		out[sensorFoodSize] = 0.0
	}

	ratio := a.EnergyRatio()
	out[sensorEnergyCritical] = boolFlag(ratio < 0.25)
	out[sensorEnergyHealthy] = boolFlag(ratio > 0.75)

	out[sensorRevisit] = clamp01(float64(a.Visited[a.pos]) / revisitSaturation)
	out[sensorBias] = 1.0
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func boolFlag(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
