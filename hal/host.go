//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// HostConfig describes the simulated device the host HAL provides.
type HostConfig struct {
	Width  int
	Height int
	// Scale is the window zoom factor.
	Scale int

	Network HostNetworkConfig
	Time    HostTimeConfig
	Update  HostUpdateConfig

	// Log receives log lines; nil means stdout.
	Log io.Writer
}

// DefaultHostConfig returns the 320x240 device with a local radio, the host
// clock and no update transport.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		Width:  320,
		Height: 240,
		Scale:  2,
		Network: HostNetworkConfig{
			AssociateDelay: 1500 * time.Millisecond,
			PairingListen:  ":18266",
		},
		Time: HostTimeConfig{
			Source:        TimeSourceSystem,
			QueryTimeout:  2 * time.Second,
			RetryInterval: 2 * time.Second,
		},
		Update: HostUpdateConfig{
			Transport:   UpdateTransportNone,
			IdleTimeout: 30 * time.Second,
		},
	}
}

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	t      *hostTime
	net    *hostNetwork
	tref   *hostTimeRef
	upd    Updater
}

// New returns a host HAL implementation.
func New(cfg HostConfig) HAL {
	return newHostHAL(cfg)
}

func newHostHAL(cfg HostConfig) *hostHAL {
	def := DefaultHostConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.Scale <= 0 {
		cfg.Scale = def.Scale
	}
	var w io.Writer = os.Stdout
	if cfg.Log != nil {
		w = cfg.Log
	}
	logger := &hostLogger{w: w}

	upd, err := newHostUpdater(cfg.Update, logger)
	if err != nil {
		logger.WriteLineString(fmt.Sprintf("hal: update transport: %v", err))
		upd = nullUpdater{}
	}

	return &hostHAL{
		logger: logger,
		fb:     newHostFramebuffer(cfg.Width, cfg.Height),
		t:      newHostTime(),
		net:    newHostNetwork(cfg.Network, logger),
		tref:   newHostTimeRef(cfg.Time, logger),
		upd:    upd,
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) Network() Network { return h.net }
func (h *hostHAL) TimeRef() TimeRef { return h.tref }
func (h *hostHAL) Updater() Updater { return h.upd }

// close releases listeners and background goroutines.
func (h *hostHAL) close() {
	_ = h.net.StopPairing()
	h.tref.stop()
	if c, ok := h.upd.(io.Closer); ok {
		_ = c.Close()
	}
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
