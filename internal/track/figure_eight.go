package track

import (
	"math"
	"math/rand/v2"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

const (
	FigureEightRadius = 50.0
	FigureEightWidth  = 8.0

	// parameter of the overpass apex; the ramp spans one unit of t either side
	figureEightRampCenter = 4.72
	figureEightRampPeak   = 10.0
	figureEightRampMax    = 8.0

	// the starting gate sits on the ground branch just before the crossing
	figureEightStartT = math.Pi/2 + 0.12
)

// FigureEight is a lemniscate of Bernoulli with an overpass where the two
// branches cross at the origin. Riders cannot fall off it.
//
// Both branches meet at the origin with identical x/z, so every gate lives on
// the ground branch (z has the same sign as x) a few units from the crossing.
// Travel runs towards decreasing t: behind (x = -6), finish (x = -3), the
// crossing, ahead (x = +6), the right lobe, the overpass, the left lobe and
// back to behind.
type FigureEight struct{}

func (FigureEight) Type() types.TrackType { return types.TrackFigureEight }

func (FigureEight) OnMap(Position) bool { return true }

func (FigureEight) OnFinishLine(p Position) bool {
	return math.Abs(p.X+3) < 0.5 && math.Abs(p.Z+3) < 3
}

func (FigureEight) AheadFinishLine(p Position) bool {
	return math.Abs(p.X-6) < 0.5 && math.Abs(p.Z-6) < 4
}

func (FigureEight) BehindFinishLine(p Position) bool {
	return math.Abs(p.X+6) < 0.5 && math.Abs(p.Z+6) < 4
}

func (FigureEight) GenerateStartingPosition(rng *rand.Rand) types.Pose {
	x, _, z := FigureEightSample(figureEightStartT)

	// direction of travel is decreasing t
	const eps = 1e-4
	x0, _, z0 := FigureEightSample(figureEightStartT + eps)
	x1, _, z1 := FigureEightSample(figureEightStartT - eps)
	dx, dz := x1-x0, z1-z0
	norm := math.Hypot(dx, dz)
	dx, dz = dx/norm, dz/norm

	// small lateral offset so riders joining together do not stack up
	lateral := rng.Float64() - 0.5
	x += -dz * lateral
	z += dx * lateral

	return types.Pose{
		X:    x,
		Y:    0,
		Z:    z,
		Yaw:  yawAlong(dx, dz),
		Roll: 0,
	}
}

// FigureEightSample returns the centre line of the course at parameter t.
func FigureEightSample(t float64) (x, y, z float64) {
	sin, cos := math.Sin(t), math.Cos(t)
	denom := 1 + sin*sin
	x = FigureEightRadius * cos / denom
	z = FigureEightRadius * sin * cos / denom
	y = clamp(figureEightRampPeak*(1-clamp(math.Abs(t-figureEightRampCenter), 0, 1)), 0, figureEightRampMax)
	return x, y, z
}
