// Package animation drives the wheel and jackpot draws from the moment a
// participant asks for a spin until the server's prize is on screen.
package animation

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a draw is requested or animating.
	ErrBusy = errors.New("animation: a draw is already running")
	// ErrClosed is returned after Teardown.
	ErrClosed = errors.New("animation: engine torn down")
)

// State is the engine lifecycle.
type State int

const (
	StateIdle State = iota
	StateRequestingPrize
	StateSpinning
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPrize:
		return "requesting_prize"
	case StateSpinning:
		return "spinning"
	case StateSettled:
		return "settled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Busy reports whether the engine refuses a new draw or a new prize order.
func (s State) Busy() bool {
	return s == StateRequestingPrize || s == StateSpinning
}

// FrameKind tells renderers which engine produced a frame.
type FrameKind string

const (
	FrameWheel   FrameKind = "wheel"
	FrameJackpot FrameKind = "jackpot"
)

// Frame is one rendered step. Wheel frames carry Rotation; jackpot frames
// carry the prize index shown on each reel and whether it is locked.
type Frame struct {
	Kind     FrameKind `json:"kind"`
	State    State     `json:"state"`
	Rotation float64   `json:"rotation"`
	Reels    []int     `json:"reels,omitempty"`
	Locked   []bool    `json:"locked,omitempty"`
}

// Sink receives frames. Implementations must not call back into the engine.
type Sink interface {
	Frame(f Frame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f Frame)

func (fn SinkFunc) Frame(f Frame) { fn(f) }

type nopSink struct{}

func (nopSink) Frame(Frame) {}
