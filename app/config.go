package app

import (
	"watch/watchos/netprov"
	"watch/watchos/timesync"
	"watch/watchos/ui"
)

// Task periods in milliseconds.
const (
	netPeriod   = 100
	syncPeriod  = 500
	clockPeriod = 1000
	uiPeriod    = 5
)

// Config tunes the device components.
type Config struct {
	Net  netprov.Config
	Sync timesync.Config
	UI   ui.Config
}

// DefaultConfig is the compiled-in device configuration.
func DefaultConfig() Config {
	return Config{
		Net:  netprov.DefaultConfig(),
		Sync: timesync.DefaultConfig(),
		UI:   ui.DefaultConfig(),
	}
}
