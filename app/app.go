package app

import (
	"context"
	"errors"
	"fmt"

	"watch/hal"
	"watch/watchos/clocksrc"
	"watch/watchos/console"
	"watch/watchos/face"
	"watch/watchos/kernel"
	"watch/watchos/netprov"
	"watch/watchos/ota"
	"watch/watchos/timesync"
	"watch/watchos/ui"
)

type system struct {
	h   hal.HAL
	log hal.Logger
	cfg Config
	k   *kernel.Kernel
	fb  hal.Framebuffer

	console *console.Console
	net     *netprov.Machine
	sync    *timesync.Syncer
	clock   *clocksrc.Source

	// Set by bringUp.
	engine *ui.Engine
	face   *face.Face
	ota    *ota.Handshake
	// polled is set once the update listener began; never in offline mode.
	polled bool

	halted bool
}

// New wires the firmware onto h with the default config and returns the
// function that advances it by one scheduler step.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, DefaultConfig())
}

// NewWithConfig is New with an explicit config.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	s, err := newSystem(h, cfg)
	if err != nil {
		h.Logger().WriteLineString("app: " + err.Error())
		return func() error { return err }
	}
	return func() error {
		s.k.Step()
		return nil
	}
}

// Run starts the firmware and blocks forever (TinyGo entrypoint).
func Run(h hal.HAL) {
	s, err := newSystem(h, DefaultConfig())
	if err != nil {
		h.Logger().WriteLineString("app: " + err.Error())
		select {}
	}
	bootDiagStart(s)
	_ = s.k.Run(context.Background())
}

func newSystem(h hal.HAL, cfg Config) (*system, error) {
	s := &system{
		h:     h,
		log:   h.Logger(),
		cfg:   cfg,
		k:     kernel.New(h.Time()),
		clock: clocksrc.New(h.TimeRef()),
	}
	if d := h.Display(); d != nil {
		s.fb = d.Framebuffer()
	}
	if s.fb == nil {
		return nil, errors.New("no framebuffer")
	}
	if cfg.UI.Width <= 0 || cfg.UI.Height <= 0 {
		cfg.UI.Width, cfg.UI.Height = int16(s.fb.Width()), int16(s.fb.Height())
		s.cfg.UI = cfg.UI
	}
	s.console = console.New(s.fb)
	s.net = netprov.New(h.Network(), s.log, s, cfg.Net)
	s.sync = timesync.New(h.TimeRef(), s.log, s, cfg.Sync)
	s.k.SetPanicHandler(s.panicked)

	tasks := []struct {
		name     string
		interval uint32
		action   kernel.Action
	}{
		{"net", netPeriod, s.netTask},
		{"sync", syncPeriod, s.syncTask},
		{"clock", clockPeriod, s.clockTask},
		{"ui", uiPeriod, s.uiTask},
	}
	for _, t := range tasks {
		if _, err := s.k.AddTask(t.name, t.interval, t.action); err != nil {
			return nil, fmt.Errorf("add task %s: %w", t.name, err)
		}
	}
	return s, nil
}

// ShowStatus routes a status line to the console until the face is up,
// then to the face's centred label.
func (s *system) ShowStatus(msg string) {
	if s.face != nil {
		s.face.ShowStatus(msg)
		return
	}
	s.console.ShowStatus(msg)
}

func (s *system) netTask(now uint32) {
	s.net.Step(now)
	switch s.net.State() {
	case netprov.Connected:
		if s.sync.State() == timesync.Idle {
			if err := s.sync.Start(now, s.net.State()); err != nil {
				s.log.WriteLineString("app: " + err.Error())
			}
		}
	case netprov.Failed:
		// No network: run the face unsynchronized and without updates.
		if s.face == nil {
			s.bringUp(false)
		}
	}
}

func (s *system) syncTask(now uint32) {
	prev := s.sync.State()
	s.sync.Step(now)
	if s.face == nil {
		if s.sync.Done() {
			s.bringUp(true)
		}
		return
	}
	// A late sync after the face is up: the time is on the dial already,
	// so drop the failure notice instead of leaving a timestamp over it.
	if prev != timesync.Synced && s.sync.State() == timesync.Synced {
		s.face.ShowStatus("")
	}
}

// clockTask redraws the face and polls the update transport. The transport
// is only polled once bringUp started it; offline there is nothing to poll.
func (s *system) clockTask(uint32) {
	if s.polled {
		s.h.Updater().Handle()
	}
	if s.face != nil && !s.halted {
		s.refreshFace()
	}
}

func (s *system) uiTask(now uint32) {
	if s.halted {
		return
	}
	if s.engine != nil {
		s.engine.TimerHandler(now)
		return
	}
	if err := s.console.Refresh(); err != nil {
		s.log.WriteLineString("app: present: " + err.Error())
	}
}

// bringUp starts the update listener (when online) and replaces the
// console with the clock face.
func (s *system) bringUp(online bool) {
	if online {
		u := s.h.Updater()
		s.ota = ota.Register(u, s, s.log)
		if err := u.Begin(); err != nil {
			s.log.WriteLineString("app: update listener: " + err.Error())
		} else {
			s.polled = true
		}
	}

	s.engine = ui.NewEngine(s.cfg.UI, s.flush)
	s.face = face.New(s.engine)
	s.face.ShowAddr(s.net.Addr())
	if s.sync.State() == timesync.Failed {
		// The console line was replaced before it could be drawn.
		s.face.ShowStatus(timesync.FailedStatus)
	}
	s.refreshFace()
	s.log.WriteLineString("app: face up")
}

// refreshFace shows the current time, or the placeholders until the sync
// step has succeeded.
func (s *system) refreshFace() {
	if !s.sync.Sync().Synchronized {
		s.face.Update(clocksrc.Calendar{}, false)
		return
	}
	cal, err := s.clock.Now()
	if err != nil && !errors.Is(err, clocksrc.ErrNotSynced) {
		s.log.WriteLineString("app: " + err.Error())
	}
	s.face.Update(cal, err == nil)
}

func (s *system) flush(a ui.Area, px []byte) {
	if err := s.fb.Flush(int(a.X1), int(a.Y1), int(a.Width()), int(a.Height()), px); err != nil {
		s.log.WriteLineString("app: flush: " + err.Error())
	}
	s.engine.FlushReady()
}
