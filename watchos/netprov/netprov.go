// Package netprov brings the radio from "no connectivity" to "has an
// address": stored credentials first, then pairing with a companion app.
package netprov

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"watch/hal"
)

var (
	// ErrProvisioningTimeout means the stored credentials did not connect in
	// time. It is recovered by falling back to pairing.
	ErrProvisioningTimeout = errors.New("stored credentials did not connect")
	// ErrPairingTimeout means nobody paired the device in time.
	ErrPairingTimeout = errors.New("pairing timed out")
)

// State is the connectivity state.
type State uint8

const (
	Disconnected State = iota
	ConnectingStored
	PairingMode
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case ConnectingStored:
		return "ConnectingStored"
	case PairingMode:
		return "PairingMode"
	case Connected:
		return "Connected"
	case Failed:
		return "Failed"
	default:
		return "unknown"
	}
}

// StatusSink shows a line of user-visible status.
type StatusSink interface {
	ShowStatus(msg string)
}

type Config struct {
	// PollInterval is the time between connection checks.
	PollInterval time.Duration
	// StoredAttempts bounds the checks made with stored credentials.
	StoredAttempts int
	// PairingTimeout bounds the wait for pairing; 0 waits forever.
	PairingTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   100 * time.Millisecond,
		StoredAttempts: 100,
		PairingTimeout: 10 * time.Minute,
	}
}

// Machine is the provisioning state machine. Step must be called
// periodically; it never blocks.
type Machine struct {
	cfg    Config
	radio  hal.Network
	log    hal.Logger
	status StatusSink

	state    State
	attempts int
	lastPoll uint32
	since    uint32
	pairing  bool
	addr     netip.Addr
	err      error

	onConnected func(netip.Addr)
}

func New(radio hal.Network, log hal.Logger, status StatusSink, cfg Config) *Machine {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.StoredAttempts <= 0 {
		cfg.StoredAttempts = def.StoredAttempts
	}
	return &Machine{cfg: cfg, radio: radio, log: log, status: status}
}

// OnConnected registers fn to run once when the machine reaches Connected.
func (m *Machine) OnConnected(fn func(netip.Addr)) { m.onConnected = fn }

func (m *Machine) State() State { return m.state }

// Connected reports whether an address has been acquired.
func (m *Machine) Connected() bool { return m.state == Connected }

// Addr is the acquired address, valid once Connected.
func (m *Machine) Addr() netip.Addr { return m.addr }

// Err is the last provisioning error: ErrProvisioningTimeout after falling
// back to pairing, ErrPairingTimeout (or a radio error) once Failed.
func (m *Machine) Err() error { return m.err }

func (m *Machine) pollInterval() uint32 {
	return uint32(m.cfg.PollInterval / time.Millisecond)
}

// Step advances the machine.
func (m *Machine) Step(now uint32) {
	switch m.state {
	case Disconnected:
		m.show("Start WiFi Connect!")
		if err := m.radio.ConnectStored(); err != nil {
			if !errors.Is(err, hal.ErrNoCredentials) {
				m.log.WriteLineString("netprov: connect stored: " + err.Error())
			}
			m.err = ErrProvisioningTimeout
			m.beginPairing(now)
			return
		}
		m.attempts = 0
		m.lastPoll = now
		m.set(ConnectingStored)

	case ConnectingStored:
		if now-m.lastPoll < m.pollInterval() {
			return
		}
		m.lastPoll = now
		if m.radio.Connected() {
			m.connected()
			return
		}
		m.attempts++
		if m.attempts >= m.cfg.StoredAttempts {
			m.err = ErrProvisioningTimeout
			m.beginPairing(now)
		}

	case PairingMode:
		if now-m.lastPoll < m.pollInterval() {
			return
		}
		m.lastPoll = now
		if m.radio.Connected() {
			m.connected()
			return
		}
		if m.cfg.PairingTimeout > 0 && now-m.since >= uint32(m.cfg.PairingTimeout/time.Millisecond) {
			m.stopPairing()
			m.fail(ErrPairingTimeout, "WiFi pairing timed out")
		}

	case Connected, Failed:
	}
}

func (m *Machine) beginPairing(now uint32) {
	if err := m.radio.BeginPairing(); err != nil {
		m.fail(fmt.Errorf("begin pairing: %w", err), "WiFi unavailable")
		return
	}
	m.pairing = true
	m.since = now
	m.lastPoll = now
	m.set(PairingMode)
	m.show("Config WiFi with companion app!")
}

func (m *Machine) stopPairing() {
	if !m.pairing {
		return
	}
	m.pairing = false
	if err := m.radio.StopPairing(); err != nil {
		m.log.WriteLineString("netprov: stop pairing: " + err.Error())
	}
}

func (m *Machine) connected() {
	m.stopPairing()
	m.err = nil
	m.addr = m.radio.LocalAddr()
	m.set(Connected)
	m.show("WiFi Connected, Please Wait...")
	m.show("IP: " + m.addr.String())
	if m.onConnected != nil {
		m.onConnected(m.addr)
	}
}

func (m *Machine) fail(err error, msg string) {
	m.err = err
	m.set(Failed)
	m.show(msg)
}

func (m *Machine) set(s State) {
	m.log.WriteLineString(fmt.Sprintf("netprov: %s -> %s", m.state, s))
	m.state = s
}

func (m *Machine) show(msg string) {
	if m.status != nil {
		m.status.ShowStatus(msg)
	}
}
