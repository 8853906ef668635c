package hal

import (
	"errors"
	"net/netip"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var (
	ErrNotImplemented = errors.New("not implemented")

	// ErrNoCredentials is returned by Network.ConnectStored when nothing is stored.
	ErrNoCredentials = errors.New("no stored credentials")

	// ErrNotSynced is returned by TimeRef.LocalTime before the first valid sync.
	ErrNotSynced = errors.New("time not synchronized")

	// ErrRestart is returned from the app step function when the device must restart.
	ErrRestart = errors.New("restart requested")
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus "flush" and "present" hooks.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)

	// Flush copies a w*h block of pixels (row-major, RGB565 little-endian)
	// into the region starting at x, y.
	Flush(x, y, w, h int, px []byte) error
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Time provides the monotonic millisecond counter.
//
// The counter wraps after ~49 days; callers compare with uint32 subtraction.
type Time interface {
	Millis() uint32
}

// Network is the Wi-Fi radio as seen by provisioning.
type Network interface {
	// ConnectStored starts association with previously stored credentials.
	ConnectStored() error
	// BeginPairing switches the radio into pairing mode, listening for
	// credentials pushed by a companion app.
	BeginPairing() error
	StopPairing() error
	Connected() bool
	LocalAddr() netip.Addr
}

// TimeRef is the platform calendar clock plus its network sync client.
type TimeRef interface {
	// Configure requests synchronization against servers, tried in order.
	// It does not wait for the result.
	Configure(offset time.Duration, servers ...string) error
	// LocalTime returns the offset-adjusted wall clock, or ErrNotSynced.
	LocalTime() (time.Time, error)
}

// UpdateError is the failure code reported by an update transport.
type UpdateError uint8

const (
	UpdateErrAuth UpdateError = iota
	UpdateErrBegin
	UpdateErrConnect
	UpdateErrReceive
	UpdateErrEnd
)

func (e UpdateError) String() string {
	switch e {
	case UpdateErrAuth:
		return "auth"
	case UpdateErrBegin:
		return "begin"
	case UpdateErrConnect:
		return "connect"
	case UpdateErrReceive:
		return "receive"
	case UpdateErrEnd:
		return "end"
	default:
		return "unknown"
	}
}

// UpdateHooks are the lifecycle callbacks of a firmware update.
//
// They are invoked synchronously from Updater.Handle.
type UpdateHooks struct {
	OnStart    func()
	OnProgress func(done, total uint32)
	OnEnd      func()
	OnError    func(code UpdateError)
}

// Updater is the remote firmware-update transport.
type Updater interface {
	SetHooks(h UpdateHooks)
	// Begin starts listening for updates.
	Begin() error
	// Handle processes queued transport activity. It must be polled.
	Handle()
}

// HAL provides the only contact point between the firmware and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Time() Time
	Network() Network
	TimeRef() TimeRef
	Updater() Updater
}
