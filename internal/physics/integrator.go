// Package physics advances a rider's kinematic state by one fixed tick.
package physics

import (
	"math"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

// Input is the set of held controls sampled for one tick.
type Input struct {
	Accelerate bool
	Brake      bool
	LeanLeft   bool
	LeanRight  bool
	Boost      bool
}

// State is everything the integrator carries between ticks.
type State struct {
	Pose types.Pose

	PitchMomentum float64 // signed; negative rolls forward
	RollMomentum  float64
	RiderLean     float64 // radians, right positive
	WheelAngle    float64 // visual spin of the wheel
	VerticalSpeed float64
}

// NewState places a resting rider at pose.
func NewState(pose types.Pose) State {
	return State{Pose: pose}
}

func (s State) Velocities() types.Velocities {
	return types.Velocities{WheelPitch: s.PitchMomentum}
}

// Speed is the forward ground speed implied by the pitch momentum.
func (s State) Speed() float64 {
	return -s.PitchMomentum
}

// Heading is the unit ground direction the wheel rolls towards at yaw.
func Heading(yaw float64) (x, z float64) {
	return math.Sin(yaw + math.Pi/2), math.Cos(yaw + math.Pi/2)
}

// ApplyInput folds one tick of held controls into the momentum and rider lean.
func ApplyInput(s State, in Input) State {
	omega := MaxOmega
	if in.Boost {
		omega = BoostMaxOmega
	}
	if in.Accelerate {
		s.PitchMomentum -= omega * TickDelta
	}
	if in.Brake {
		s.PitchMomentum += omega * TickDelta
	}

	lean := 0.0
	if in.LeanRight {
		lean += LeanSpeedDeg
	}
	if in.LeanLeft {
		lean -= LeanSpeedDeg
	}
	s.RiderLean += lean * math.Pi / 180 * TickDelta
	return s
}

// Step integrates one TickDelta. groundContact comes from the active track's
// OnMap at the current position.
func Step(s State, groundContact bool) State {
	dt := TickDelta
	s.WheelAngle += s.PitchMomentum * dt

	torque := (math.Sin(s.Pose.Roll)*WheelHeight + math.Sin(s.RiderLean)*RiderOffset) * Gravity * WheelMass
	s.RollMomentum += torque / WheelInertia * dt

	// Past the limit the roll angle freezes while momentum keeps growing, so a
	// rider who tips over keeps stored momentum.
	if math.Abs(s.Pose.Roll) < RollLimit {
		s.Pose.Roll += s.RollMomentum * dt
	}

	dx := s.PitchMomentum * dt * WheelRadius
	s.PitchMomentum += -dx * Friction

	speed := s.Speed()

	hx, hz := Heading(s.Pose.Yaw)
	s.Pose.X += hx * speed * dt
	s.Pose.Z += hz * speed * dt

	if k := turnDivisor(s.Pose.Roll); !math.IsInf(k, 1) {
		s.Pose.Yaw -= sign(s.Pose.Roll) * speed / k * dt
	}

	if !groundContact {
		s.VerticalSpeed -= Gravity * dt
		s.Pose.Y += s.VerticalSpeed * dt
	} else {
		s.VerticalSpeed = 0
		s.Pose.Y = 0
	}
	return s
}

// Advance is ApplyInput followed by Step.
func Advance(s State, in Input, groundContact bool) State {
	return Step(ApplyInput(s, in), groundContact)
}

func turnDivisor(roll float64) float64 {
	t := lerp(0, 1, clamp01(math.Abs(roll)/RollLimit))
	if t < turnEpsilon {
		return math.Inf(1)
	}
	return 1 / t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
