package ota

import (
	"fmt"

	"watch/hal"
)

// StatusSink shows a line of user-visible status.
type StatusSink interface {
	ShowStatus(msg string)
}

// Handshake binds the update transport's hooks to the session state.
type Handshake struct {
	session Session
	status  StatusSink
	log     hal.Logger
}

// Register installs the hooks on u. Hooks are delivered from u.Handle.
func Register(u hal.Updater, status StatusSink, log hal.Logger) *Handshake {
	h := &Handshake{session: Idle{}, status: status, log: log}
	u.SetHooks(hal.UpdateHooks{
		OnStart:    func() { h.Dispatch(Start{}) },
		OnProgress: func(done, total uint32) { h.Dispatch(Progress{Done: done, Total: total}) },
		OnEnd:      func() { h.Dispatch(End{}) },
		OnError:    func(code hal.UpdateError) { h.Dispatch(Error{Code: code}) },
	})
	return h
}

// Session returns the current session.
func (h *Handshake) Session() Session { return h.session }

// Dispatch feeds ev through Apply and shows the resulting status.
func (h *Handshake) Dispatch(ev Event) bool {
	next, status, ok := Apply(h.session, ev)
	if !ok {
		h.log.WriteLineString(fmt.Sprintf("ota: ignored %T in %s", ev, h.session))
		return false
	}
	if _, progress := ev.(Progress); !progress {
		h.log.WriteLineString(fmt.Sprintf("ota: %s -> %s", h.session, next))
	}
	h.session = next
	if h.status != nil {
		h.status.ShowStatus(status)
	}
	return true
}
