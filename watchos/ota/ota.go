// Package ota tracks a remote firmware update as a tagged state driven by
// transport events, and turns each accepted transition into status text.
package ota

import (
	"fmt"

	"watch/hal"
)

// Session is one of Idle, InProgress, Succeeded or Failed.
type Session interface {
	session()
	String() string
}

type Idle struct{}

type InProgress struct {
	Done  uint32
	Total uint32
}

type Succeeded struct{}

type Failed struct {
	Code hal.UpdateError
}

func (Idle) session()       {}
func (InProgress) session() {}
func (Succeeded) session()  {}
func (Failed) session()     {}

func (Idle) String() string         { return "Idle" }
func (s InProgress) String() string { return fmt.Sprintf("InProgress(%d/%d)", s.Done, s.Total) }
func (Succeeded) String() string    { return "Succeeded" }
func (s Failed) String() string     { return fmt.Sprintf("Failed(%d)", s.Code) }

// Event is one of Start, Progress, End or Error.
type Event interface {
	event()
}

type Start struct{}

type Progress struct {
	Done  uint32
	Total uint32
}

type End struct{}

type Error struct {
	Code hal.UpdateError
}

func (Start) event()    {}
func (Progress) event() {}
func (End) event()      {}
func (Error) event()    {}

// Apply is the transition function. It returns the next session and the
// status text to show; ok is false when ev is not valid in s, in which case
// s is returned unchanged and nothing should be shown.
func Apply(s Session, ev Event) (next Session, status string, ok bool) {
	switch ev := ev.(type) {
	case Start:
		switch s.(type) {
		case Idle, Failed, Succeeded:
			return InProgress{}, "OTA update starting", true
		}
	case Progress:
		if _, in := s.(InProgress); in {
			return InProgress{Done: ev.Done, Total: ev.Total}, fmt.Sprintf("OTA updating: %d/%d", ev.Done, ev.Total), true
		}
	case End:
		if _, in := s.(InProgress); in {
			return Succeeded{}, "OTA success, restarting...", true
		}
	case Error:
		// Transports also report auth and begin failures that never
		// produced a Start, so an error is shown from any state.
		return Failed{Code: ev.Code}, fmt.Sprintf("OTA error [%d]", ev.Code), true
	}
	return s, "", false
}
