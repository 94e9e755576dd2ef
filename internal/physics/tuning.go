package physics

import "math"

const (
	TickRate  = 60
	TickDelta = 1.0 / TickRate // seconds; fixed, never derived from wall time

	Gravity      = 9.81
	Friction     = 0.9
	WheelMass    = 5.0
	WheelInertia = 70.0
	WheelRadius  = 0.6 // half the wheel mesh width
	WheelHeight  = 1.2 // lever arm of the wheel body
	RiderOffset  = 1.6 // half the rider height plus its seat offset

	MaxOmega      = 3.0 // rad/s of pitch momentum gained per second of input
	BoostMaxOmega = 6.0
	LeanSpeedDeg  = 200.0 // rider lean rate in degrees per second

	RollLimit = math.Pi / 2

	// below this the turn divisor is treated as infinite
	turnEpsilon = 1e-6
)
