package engine

import "github.com/DoyleJ11/unicycle-racing/internal/track"

// Replay feeds positions through Advance starting from p and returns the
// final progress together with every non-empty event.
func Replay(p Progress, m track.Model, positions []track.Position) (Progress, []Event) {
	var events []Event
	for _, pos := range positions {
		var evt Event
		p, evt = Advance(p, m, pos)
		if evt.Type != EvtNone {
			events = append(events, evt)
		}
	}
	return p, events
}

func CountEvents(events []Event, eventType EventType) int {
	n := 0
	for _, event := range events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}
