package track

import (
	"math"
	"math/rand/v2"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

const (
	LoopInnerRadius = 5.0
	LoopOuterRadius = 15.0

	// angular half-width of the finish line and the two markers
	loopGateHalfWidthDeg = 3.0
	loopMarkerOffsetDeg  = 10.0
)

// Loop is a flat annulus around the origin. Riders start on the finish line
// (theta = 0) travelling towards negative theta, so the ahead marker at -10
// degrees is crossed first and the behind marker at +10 degrees last.
type Loop struct{}

func (Loop) Type() types.TrackType { return types.TrackLoop }

func (Loop) OnMap(p Position) bool {
	r := math.Hypot(p.X, p.Z)
	return r >= LoopInnerRadius && r <= LoopOuterRadius && p.Y <= 1e-6 && p.Y >= -1
}

func (Loop) OnFinishLine(p Position) bool {
	return math.Abs(loopTheta(p)) < degToRad(loopGateHalfWidthDeg)
}

func (Loop) AheadFinishLine(p Position) bool {
	return math.Abs(loopTheta(p)-degToRad(-loopMarkerOffsetDeg)) < degToRad(loopGateHalfWidthDeg)
}

func (Loop) BehindFinishLine(p Position) bool {
	return math.Abs(loopTheta(p)-degToRad(loopMarkerOffsetDeg)) < degToRad(loopGateHalfWidthDeg)
}

func (Loop) GenerateStartingPosition(rng *rand.Rand) types.Pose {
	r := rng.Float64()*(LoopOuterRadius-LoopInnerRadius) + LoopInnerRadius
	theta := 0.0
	return types.Pose{
		X:    math.Cos(theta) * r,
		Y:    0,
		Z:    math.Sin(theta) * r,
		Yaw:  math.Atan2(-math.Sin(theta), math.Cos(theta)) + math.Pi/2,
		Roll: 0,
	}
}

func loopTheta(p Position) float64 {
	return math.Atan2(p.Z, p.X)
}
