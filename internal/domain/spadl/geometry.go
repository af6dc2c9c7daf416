package spadl

import "math"

// Pitch dimensions in metres.
const (
	PitchLength = 105.0
	PitchWidth  = 68.0
	GoalWidth   = 7.32
)

// GoalDistance is the distance from (x, y) to the centre of the attacked goal.
// Non-finite coordinates fall back to the centre spot.
func GoalDistance(x, y float64) float64 {
	x, y = orCentre(x, y)
	return math.Hypot(PitchLength-x, PitchWidth/2-y)
}

// GoalAngle is the angle in radians subtended by the goal mouth from (x, y).
// Points on or inside the goal-mouth circle see the full angle pi.
func GoalAngle(x, y float64) float64 {
	x, y = orCentre(x, y)
	dx := PitchLength - x
	dy := math.Abs(PitchWidth/2 - y)
	denom := dx*dx + dy*dy - (GoalWidth/2)*(GoalWidth/2)
	if denom <= 0 {
		return math.Pi
	}
	return math.Atan2(GoalWidth*dx, denom)
}

func orCentre(x, y float64) (float64, float64) {
	if !finite(x) {
		x = PitchLength / 2
	}
	if !finite(y) {
		y = PitchWidth / 2
	}
	return x, y
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
