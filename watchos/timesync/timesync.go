// Package timesync requests calendar time from network time services once
// the device is online and waits, without blocking, for a valid clock.
package timesync

import (
	"errors"
	"fmt"
	"time"

	"watch/hal"
	"watch/watchos/clocksrc"
	"watch/watchos/netprov"
)

var (
	// ErrNotConnected is returned by Start before provisioning succeeded.
	ErrNotConnected = errors.New("timesync: network not connected")
	// ErrSyncUnavailable means no time service answered in time.
	ErrSyncUnavailable = errors.New("timesync: time service unavailable")
)

// FailedStatus is shown when a request times out or cannot be issued.
const FailedStatus = "Time sync failed"

// State of the synchronization step.
type State uint8

const (
	Idle State = iota
	Requesting
	Synced
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Requesting:
		return "Requesting"
	case Synced:
		return "Synced"
	case Failed:
		return "Failed"
	default:
		return "unknown"
	}
}

// SyncState is what the rest of the firmware may know about the clock.
type SyncState struct {
	Synchronized bool
	// Last is the calendar time read when synchronization completed.
	Last clocksrc.Calendar
}

// StatusSink shows a line of user-visible status.
type StatusSink interface {
	ShowStatus(msg string)
}

type Config struct {
	// Servers are asked in order; the first to answer wins.
	Servers []string
	// Offset is added to UTC to get local time.
	Offset time.Duration
	// PollInterval is the time between clock validity checks.
	PollInterval time.Duration
	// Timeout bounds one request; 0 waits forever.
	Timeout time.Duration
	// RetryInterval is the pause after a failure before asking again;
	// 0 never retries.
	RetryInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Servers:       []string{"ntp6.aliyun.com", "cn.ntp.org.cn", "ntp.ntsc.ac.cn"},
		Offset:        8 * time.Hour,
		PollInterval:  500 * time.Millisecond,
		Timeout:       30 * time.Second,
		RetryInterval: 5 * time.Minute,
	}
}

// Syncer is the time synchronization step.
type Syncer struct {
	cfg    Config
	ref    hal.TimeRef
	clock  *clocksrc.Source
	log    hal.Logger
	status StatusSink

	state    State
	sync     SyncState
	since    uint32
	lastPoll uint32
	failedAt uint32
	failures int
	err      error
}

func New(ref hal.TimeRef, log hal.Logger, status StatusSink, cfg Config) *Syncer {
	def := DefaultConfig()
	if len(cfg.Servers) == 0 {
		cfg.Servers = def.Servers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &Syncer{
		cfg:    cfg,
		ref:    ref,
		clock:  clocksrc.New(ref),
		log:    log,
		status: status,
	}
}

func (s *Syncer) State() State { return s.state }

// Sync returns the current synchronization state.
func (s *Syncer) Sync() SyncState { return s.sync }

// Done reports whether the first attempt has finished, successfully or not.
func (s *Syncer) Done() bool {
	return s.state == Synced || s.failures > 0
}

func (s *Syncer) Err() error { return s.err }

// Start issues the synchronization request. It is a no-op once started.
func (s *Syncer) Start(now uint32, conn netprov.State) error {
	if conn != netprov.Connected {
		return ErrNotConnected
	}
	if s.state != Idle {
		return nil
	}
	s.request(now)
	return nil
}

func (s *Syncer) request(now uint32) {
	s.since = now
	s.lastPoll = now
	if err := s.ref.Configure(s.cfg.Offset, s.cfg.Servers...); err != nil {
		s.fail(now, fmt.Errorf("%w: %v", ErrSyncUnavailable, err))
		return
	}
	s.set(Requesting)
}

// Step polls for a valid clock and handles timeout and retry.
func (s *Syncer) Step(now uint32) {
	switch s.state {
	case Requesting:
		if now-s.lastPoll < ms(s.cfg.PollInterval) {
			return
		}
		s.lastPoll = now
		cal, err := s.clock.Now()
		if err == nil {
			s.sync = SyncState{Synchronized: true, Last: cal}
			s.err = nil
			s.set(Synced)
			s.show(cal.String())
			return
		}
		if !errors.Is(err, clocksrc.ErrNotSynced) {
			s.log.WriteLineString("timesync: " + err.Error())
		}
		if s.cfg.Timeout > 0 && now-s.since >= ms(s.cfg.Timeout) {
			s.fail(now, ErrSyncUnavailable)
		}

	case Failed:
		if s.cfg.RetryInterval > 0 && now-s.failedAt >= ms(s.cfg.RetryInterval) {
			s.log.WriteLineString("timesync: retrying")
			s.request(now)
		}

	case Idle, Synced:
	}
}

func (s *Syncer) fail(now uint32, err error) {
	s.err = err
	s.failedAt = now
	s.failures++
	s.set(Failed)
	s.show(FailedStatus)
}

func (s *Syncer) set(st State) {
	s.log.WriteLineString(fmt.Sprintf("timesync: %s -> %s", s.state, st))
	s.state = st
}

func (s *Syncer) show(msg string) {
	if s.status != nil {
		s.status.ShowStatus(msg)
	}
}

func ms(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
