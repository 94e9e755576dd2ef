package types

import "fmt"

// Pose is a rider's position plus orientation. Yaw is unwrapped; roll is kept
// within [-pi/2, pi/2] by the integrator.
type Pose struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Yaw  float64 `json:"yaw"`
	Roll float64 `json:"roll"`
}

// Velocities carries the signed forward-rolling momentum of the wheel.
type Velocities struct {
	WheelPitch float64 `json:"wheelPitch"`
}

type Player struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Pose Pose   `json:"pose"`
}

type LeaderboardEntry struct {
	Name    string  `json:"name"`
	LapTime float64 `json:"lapTime"` // seconds
}

// Leaderboard is ordered ascending by LapTime.
type Leaderboard []LeaderboardEntry

type TrackType string

const (
	TrackLoop        TrackType = "Loop"
	TrackFigureEight TrackType = "FigureEight"
)

// JoinAck is the reply to a join request.
type JoinAck struct {
	Player      Player      `json:"player"`
	Players     []Player    `json:"players"`
	Leaderboard Leaderboard `json:"leaderboard"`
	TrackType   TrackType   `json:"trackType"`
}

// RestartAck is the reply to a restart request.
type RestartAck struct {
	Pose Pose `json:"pose"`
}

// FormatLapTime renders seconds as m:ss.cc.
func FormatLapTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int64(seconds*100 + 0.5)
	minutes := centis / 6000
	rest := centis % 6000
	return fmt.Sprintf("%d:%02d.%02d", minutes, rest/100, rest%100)
}
