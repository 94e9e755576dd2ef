// Package track holds the course geometry shared by client prediction and
// server lap validation. Every predicate is a pure function of the
// coordinates, so identical inputs give identical answers on both sides.
package track

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/DoyleJ11/unicycle-racing/pkg/types"
)

var ErrUnknownTrack = errors.New("unknown track type")

type Position struct {
	X, Y, Z float64
}

func PositionOf(p types.Pose) Position {
	return Position{X: p.X, Y: p.Y, Z: p.Z}
}

// Model is the capability set every course variant implements.
type Model interface {
	Type() types.TrackType
	OnMap(p Position) bool
	OnFinishLine(p Position) bool
	AheadFinishLine(p Position) bool
	BehindFinishLine(p Position) bool
	GenerateStartingPosition(rng *rand.Rand) types.Pose
}

var models = map[types.TrackType]Model{
	types.TrackLoop:        Loop{},
	types.TrackFigureEight: FigureEight{},
}

// For returns the model registered for t.
func For(t types.TrackType) (Model, error) {
	m, ok := models[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrack, t)
	}
	return m, nil
}

// Parse accepts the wire names ("Loop", "FigureEight") case-insensitively,
// plus the kebab-case form used on the command line ("figure-eight").
func Parse(s string) (types.TrackType, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	for t := range models {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTrack, s)
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// yawAlong returns the yaw whose heading points along (dx, dz).
// Heading for a yaw is (sin(yaw+pi/2), 0, cos(yaw+pi/2)) = (cos yaw, 0, -sin yaw).
func yawAlong(dx, dz float64) float64 {
	return math.Atan2(-dz, dx)
}
