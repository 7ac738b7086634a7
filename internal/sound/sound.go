// Package sound defines the audio cues the tables emit. Playback belongs to
// whoever implements Sink.
package sound

import (
	"encoding/json"

	"github.com/playmatatu/tablephysics/internal/geom"
)

type Sound int

const (
	// pinball
	Beep    Sound = iota // ball hit a point
	Boop                 // ball hit a segment
	Bump                 // ball hit a line
	Blaster              // ball hit a circular bumper
	Fire                 // ball hit ball
	Launch               // ball launched

	// pool
	Cue
	BallClick
	Thump
	Pocket
	Win
	Lose
)

var names = [...]string{
	Beep:      "beep",
	Boop:      "boop",
	Bump:      "bump",
	Blaster:   "blaster",
	Fire:      "fire",
	Launch:    "launch",
	Cue:       "cue",
	BallClick: "ball_click",
	Thump:     "thump",
	Pocket:    "pocket",
	Win:       "win",
	Lose:      "lose",
}

func (s Sound) String() string {
	if s < 0 || int(s) >= len(names) {
		return "unknown"
	}
	return names[s]
}

func (s Sound) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Event asks the audio side to play a sound. Pos and Speed let it derive
// panning and volume.
type Event struct {
	Sound Sound     `json:"sound"`
	Pos   geom.Vec2 `json:"pos"`
	Speed float64   `json:"speed"`
}

// Sink receives sound events as they happen during a frame.
type Sink interface {
	Play(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Play(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder keeps events until drained.
type Recorder struct {
	events []Event
}

func (r *Recorder) Play(e Event) {
	r.events = append(r.events, e)
}

// Drain returns the recorded events and forgets them.
func (r *Recorder) Drain() []Event {
	out := r.events
	r.events = nil
	return out
}

// Count returns how many recorded events are of kind s.
func (r *Recorder) Count(s Sound) int {
	n := 0
	for _, e := range r.events {
		if e.Sound == s {
			n++
		}
	}
	return n
}
