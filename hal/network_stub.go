package hal

import (
	"net/netip"
	"time"
)

type nullNetwork struct{}

func (nullNetwork) ConnectStored() error  { return ErrNoCredentials }
func (nullNetwork) BeginPairing() error   { return ErrNotImplemented }
func (nullNetwork) StopPairing() error    { return nil }
func (nullNetwork) Connected() bool       { return false }
func (nullNetwork) LocalAddr() netip.Addr { return netip.Addr{} }

type nullTimeRef struct{}

func (nullTimeRef) Configure(offset time.Duration, servers ...string) error {
	_ = offset
	_ = servers
	return ErrNotImplemented
}

func (nullTimeRef) LocalTime() (time.Time, error) { return time.Time{}, ErrNotSynced }

type nullUpdater struct{}

func (nullUpdater) SetHooks(h UpdateHooks) { _ = h }
func (nullUpdater) Begin() error           { return ErrNotImplemented }
func (nullUpdater) Handle()                {}
