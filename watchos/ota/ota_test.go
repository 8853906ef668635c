package ota

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"watch/hal"
)

type fakeUpdater struct {
	hooks hal.UpdateHooks
}

func (u *fakeUpdater) SetHooks(h hal.UpdateHooks) { u.hooks = h }
func (u *fakeUpdater) Begin() error               { return nil }
func (u *fakeUpdater) Handle()                    {}

type nopLogger struct{}

func (nopLogger) WriteLineString(string) {}
func (nopLogger) WriteLineBytes([]byte)  {}

type statusLog []string

func (s *statusLog) ShowStatus(msg string) { *s = append(*s, msg) }

func TestSuccessfulUpdateStatuses(t *testing.T) {
	c := qt.New(t)
	u := &fakeUpdater{}
	var status statusLog
	h := Register(u, &status, nopLogger{})

	u.hooks.OnStart()
	u.hooks.OnProgress(10, 100)
	u.hooks.OnProgress(100, 100)
	u.hooks.OnEnd()

	c.Assert([]string(status), qt.DeepEquals, []string{
		"OTA update starting",
		"OTA updating: 10/100",
		"OTA updating: 100/100",
		"OTA success, restarting...",
	})
	c.Assert(h.Session(), qt.Equals, Session(Succeeded{}))
}

func TestErrorStopsProgress(t *testing.T) {
	c := qt.New(t)
	u := &fakeUpdater{}
	var status statusLog
	h := Register(u, &status, nopLogger{})

	u.hooks.OnStart()
	u.hooks.OnError(7)
	u.hooks.OnProgress(50, 100)
	u.hooks.OnEnd()

	c.Assert(status, qt.HasLen, 2)
	c.Assert(status[1], qt.Contains, "7")
	c.Assert(h.Session(), qt.Equals, Session(Failed{Code: 7}))
}

func TestApplyRejectsOutOfOrderEvents(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		name string
		s    Session
		ev   Event
	}{
		{"progress while idle", Idle{}, Progress{Done: 1, Total: 2}},
		{"end while idle", Idle{}, End{}},
		{"start while in progress", InProgress{Done: 1, Total: 2}, Start{}},
		{"progress after failure", Failed{Code: 2}, Progress{Done: 1, Total: 2}},
		{"end after success", Succeeded{}, End{}},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			next, status, ok := Apply(tt.s, tt.ev)
			c.Assert(ok, qt.IsFalse)
			c.Assert(status, qt.Equals, "")
			c.Assert(next, qt.Equals, tt.s)
		})
	}
}

func TestStartAfterTerminalState(t *testing.T) {
	c := qt.New(t)
	for _, s := range []Session{Failed{Code: 4}, Succeeded{}} {
		next, status, ok := Apply(s, Start{})
		c.Assert(ok, qt.IsTrue)
		c.Assert(status, qt.Equals, "OTA update starting")
		c.Assert(next, qt.Equals, Session(InProgress{}))
	}
}

func TestStatusStringsAreIndependent(t *testing.T) {
	c := qt.New(t)
	_, first, _ := Apply(InProgress{}, Progress{Done: 1, Total: 9})
	_, second, _ := Apply(InProgress{}, Progress{Done: 2, Total: 9})
	c.Assert(first, qt.Equals, "OTA updating: 1/9")
	c.Assert(second, qt.Equals, "OTA updating: 2/9")
}

func TestErrorWithoutStartIsShown(t *testing.T) {
	c := qt.New(t)
	u := &fakeUpdater{}
	var status statusLog
	h := Register(u, &status, nopLogger{})

	u.hooks.OnError(hal.UpdateErrBegin)
	c.Assert([]string(status), qt.DeepEquals, []string{"OTA error [1]"})
	c.Assert(h.Session(), qt.Equals, Session(Failed{Code: hal.UpdateErrBegin}))

	u.hooks.OnError(hal.UpdateErrAuth)
	c.Assert(status[len(status)-1], qt.Equals, "OTA error [0]")
	c.Assert(h.Session(), qt.Equals, Session(Failed{Code: hal.UpdateErrAuth}))
}

func TestErrorFromEveryState(t *testing.T) {
	c := qt.New(t)
	for _, s := range []Session{Idle{}, InProgress{Done: 1, Total: 2}, Failed{Code: 4}, Succeeded{}} {
		next, status, ok := Apply(s, Error{Code: 2})
		c.Assert(ok, qt.IsTrue, qt.Commentf("from %s", s))
		c.Assert(status, qt.Equals, "OTA error [2]")
		c.Assert(next, qt.Equals, Session(Failed{Code: 2}))
	}
}
