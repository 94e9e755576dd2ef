package engine

import (
	"github.com/DoyleJ11/unicycle-racing/internal/track"
)

// Progress is the marker sequence reached on the current lap.
type Progress int

const (
	ProgressIdle   Progress = 0 // nothing crossed yet
	ProgressAhead  Progress = 1 // crossed the ahead marker
	ProgressBehind Progress = 2 // crossed ahead, then behind
)

type EventType string

const (
	EvtNone          EventType = ""
	EvtMarkerCrossed EventType = "MarkerCrossed"
	EvtLapCompleted  EventType = "LapCompleted"
	EvtProgressReset EventType = "ProgressReset"
)

type Event struct {
	Type EventType
	From Progress
	To   Progress
}

/*
	0 --ahead--> 1 --behind--> 2 --finish--> LapCompleted, back to 0
	finish while not at 2 drops back to 0 without credit, so rocking back and
	forth across the line never counts.
*/

// Advance evaluates one position update against the track's markers.
func Advance(p Progress, m track.Model, pos track.Position) (Progress, Event) {
	if m.OnFinishLine(pos) {
		switch p {
		case ProgressBehind:
			return ProgressIdle, Event{Type: EvtLapCompleted, From: p, To: ProgressIdle}
		case ProgressIdle:
			return ProgressIdle, Event{}
		default:
			return ProgressIdle, Event{Type: EvtProgressReset, From: p, To: ProgressIdle}
		}
	}

	switch {
	case p == ProgressIdle && m.AheadFinishLine(pos):
		return ProgressAhead, Event{Type: EvtMarkerCrossed, From: p, To: ProgressAhead}
	case p == ProgressAhead && m.BehindFinishLine(pos):
		return ProgressBehind, Event{Type: EvtMarkerCrossed, From: p, To: ProgressBehind}
	}
	return p, Event{}
}
