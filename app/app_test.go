package app

import (
	"net/netip"
	"strings"
	"testing"
	"time"

	"watch/hal"
	"watch/watchos/kernel"
	"watch/watchos/netprov"
	"watch/watchos/ota"
	"watch/watchos/timesync"
)

type testLogger struct{ lines []string }

func (l *testLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *testLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

func (l *testLogger) contains(sub string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type memFB struct {
	w, h     int
	buf      []byte
	flushes  int
	presents int
}

func (f *memFB) Width() int              { return f.w }
func (f *memFB) Height() int             { return f.h }
func (f *memFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *memFB) StrideBytes() int        { return f.w * 2 }
func (f *memFB) Buffer() []byte          { return f.buf }
func (f *memFB) ClearRGB(r, g, b uint8)  { clear(f.buf) }

func (f *memFB) Flush(x, y, w, h int, px []byte) error {
	f.flushes++
	return nil
}

func (f *memFB) Present() error {
	f.presents++
	return nil
}

type fakeDisplay struct{ fb *memFB }

func (d fakeDisplay) Framebuffer() hal.Framebuffer { return d.fb }

type fakeTime struct{ ms uint32 }

func (t *fakeTime) Millis() uint32 { return t.ms }

type fakeRadio struct {
	stored     bool
	pairingErr error
	polls      int
	// connectAfter is the number of Connected polls that report false.
	connectAfter int
}

func (r *fakeRadio) ConnectStored() error {
	if !r.stored {
		return hal.ErrNoCredentials
	}
	return nil
}

func (r *fakeRadio) BeginPairing() error { return r.pairingErr }
func (r *fakeRadio) StopPairing() error  { return nil }

func (r *fakeRadio) Connected() bool {
	r.polls++
	return r.polls > r.connectAfter
}

func (r *fakeRadio) LocalAddr() netip.Addr { return netip.MustParseAddr("10.0.0.2") }

type fakeTimeRef struct {
	configured bool
	// unreachable keeps the clock invalid even after Configure.
	unreachable bool
	offset      time.Duration
	now         time.Time
}

func (r *fakeTimeRef) Configure(offset time.Duration, servers ...string) error {
	r.configured = true
	r.offset = offset
	return nil
}

func (r *fakeTimeRef) LocalTime() (time.Time, error) {
	if !r.configured || r.unreachable {
		return time.Time{}, hal.ErrNotSynced
	}
	return r.now, nil
}

type fakeUpdater struct {
	hooks   hal.UpdateHooks
	begins  int
	handles int
}

func (u *fakeUpdater) SetHooks(h hal.UpdateHooks) { u.hooks = h }
func (u *fakeUpdater) Handle()                     { u.handles++ }

func (u *fakeUpdater) Begin() error {
	u.begins++
	return nil
}

type fakeHAL struct {
	log   *testLogger
	fb    *memFB
	t     *fakeTime
	radio *fakeRadio
	ref   *fakeTimeRef
	upd   *fakeUpdater
}

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		log:   &testLogger{},
		fb:    &memFB{w: 320, h: 240, buf: make([]byte, 320*240*2)},
		t:     &fakeTime{},
		radio: &fakeRadio{stored: true, connectAfter: 0},
		ref:   &fakeTimeRef{now: time.Date(2024, 3, 9, 15, 30, 45, 0, time.UTC)},
		upd:   &fakeUpdater{},
	}
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) Display() hal.Display { return fakeDisplay{fb: h.fb} }
func (h *fakeHAL) Time() hal.Time       { return h.t }
func (h *fakeHAL) Network() hal.Network { return h.radio }
func (h *fakeHAL) TimeRef() hal.TimeRef { return h.ref }
func (h *fakeHAL) Updater() hal.Updater { return h.upd }

// runUntil steps the kernel every 5 ms up to and including ms.
func runUntil(s *system, h *fakeHAL, ms uint32) {
	for h.t.ms < ms {
		h.t.ms += 5
		s.k.Step()
	}
}

func newTestSystem(t *testing.T, h *fakeHAL) *system {
	t.Helper()
	s, err := newSystem(h, DefaultConfig())
	if err != nil {
		t.Fatalf("newSystem() = %v", err)
	}
	return s
}

func TestBringUpOrder(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h)

	runUntil(s, h, 300)
	if s.net.State() != netprov.Connected {
		t.Fatalf("net state = %v, want Connected", s.net.State())
	}
	if s.sync.State() != timesync.Requesting {
		t.Fatalf("sync state = %v, want Requesting", s.sync.State())
	}
	if s.face != nil || h.upd.begins != 0 {
		t.Fatalf("face or update listener up before time sync")
	}

	runUntil(s, h, 1100)
	if s.face == nil {
		t.Fatalf("face not up after sync")
	}
	if h.upd.begins != 1 {
		t.Fatalf("Updater.Begin called %d times, want 1", h.upd.begins)
	}
	if h.ref.offset != 8*time.Hour {
		t.Fatalf("time offset = %v, want 8h", h.ref.offset)
	}

	want := []string{
		"Start WiFi Connect!",
		"WiFi Connected, Please Wait...",
		"IP: 10.0.0.2",
		"Sat Mar  9 15:30:45 2024",
	}
	got := s.console.Lines()
	if len(got) != len(want) {
		t.Fatalf("console lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("console line %d = %q, want %q", i, got[i], want[i])
		}
	}

	if s.face.Date() != "2024-03-09" || s.face.Clock() != "15:30:45" {
		t.Fatalf("face = %q %q", s.face.Date(), s.face.Clock())
	}
	if _, _, _, shown := s.face.Angles(); !shown {
		t.Fatalf("hands hidden after sync")
	}
}

func TestFaceRedrawsThroughFramebuffer(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h)
	runUntil(s, h, 1200)
	if s.engine == nil {
		t.Fatalf("engine not created")
	}
	if h.fb.flushes == 0 {
		t.Fatalf("no chunks flushed to the framebuffer")
	}
	if !s.engine.Idle() {
		t.Fatalf("engine still busy after synchronous flushes")
	}
}

func TestClockTaskPollsUpdater(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h)
	runUntil(s, h, 1100)
	before := h.upd.handles
	runUntil(s, h, 4100)
	if n := h.upd.handles - before; n != 3 {
		t.Fatalf("Handle called %d times in 3s, want 3", n)
	}
}

func TestUpdateStatusOnFace(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h)
	runUntil(s, h, 1100)

	h.upd.hooks.OnStart()
	if got := s.face.Status(); got != "OTA update starting" {
		t.Fatalf("status = %q", got)
	}
	h.upd.hooks.OnProgress(512, 1024)
	if got := s.face.Status(); got != "OTA updating: 512/1024" {
		t.Fatalf("status = %q", got)
	}
	h.upd.hooks.OnError(hal.UpdateErrReceive)
	if got := s.face.Status(); got != "OTA error [3]" {
		t.Fatalf("status = %q", got)
	}
	if _, ok := s.ota.Session().(ota.Failed); !ok {
		t.Fatalf("session = %v, want Failed", s.ota.Session())
	}
}

func TestOfflineFaceWithoutUpdates(t *testing.T) {
	h := newFakeHAL()
	h.radio.stored = false
	h.radio.pairingErr = hal.ErrNotImplemented
	s := newTestSystem(t, h)

	runUntil(s, h, 300)
	if s.net.State() != netprov.Failed {
		t.Fatalf("net state = %v, want Failed", s.net.State())
	}
	if s.face == nil {
		t.Fatalf("face not up without network")
	}
	if h.upd.begins != 0 {
		t.Fatalf("update listener started without network")
	}
	if s.face.Date() != "----------" || s.face.Clock() != "--:--:--" {
		t.Fatalf("face = %q %q, want placeholders", s.face.Date(), s.face.Clock())
	}
	runUntil(s, h, 2100)
	if h.upd.handles != 0 {
		t.Fatalf("Handle called %d times without a listener", h.upd.handles)
	}
}

func TestPanicScreen(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h)
	runUntil(s, h, 1100)
	presents := h.fb.presents

	s.panicked(kernel.PanicInfo{TaskID: 2, Task: "clock", Value: "boom", Stack: []byte("main.go:1\n\nmain.go:2\n")})
	if !s.halted {
		t.Fatalf("system not halted after panic")
	}
	lines := s.console.Lines()
	if len(lines) < 3 || lines[0] != "watch panic:" || lines[2] != "panic: boom" {
		t.Fatalf("panic screen = %q", lines)
	}
	if h.fb.presents != presents+1 {
		t.Fatalf("presents = %d, want %d", h.fb.presents, presents+1)
	}
	if !h.log.contains("task=2 (clock) panic=boom") {
		t.Fatalf("panic not logged: %q", h.log.lines)
	}

	flushes := h.fb.flushes
	s.face.ShowStatus("draw over")
	runUntil(s, h, 1300)
	if h.fb.flushes != flushes {
		t.Fatalf("face redrawn over the panic screen")
	}
}

func TestFaceWaitsForSyncStep(t *testing.T) {
	h := newFakeHAL()
	// The clock reference becomes valid on its own, but the sync step
	// never ran because the network is down.
	h.ref.configured = true
	h.radio.stored = false
	h.radio.pairingErr = hal.ErrNotImplemented
	s := newTestSystem(t, h)

	runUntil(s, h, 2100)
	if s.face == nil {
		t.Fatalf("face not up")
	}
	if s.face.Clock() != "--:--:--" {
		t.Fatalf("face clock = %q before sync, want placeholder", s.face.Clock())
	}
}

func TestSyncFailureThenLateSync(t *testing.T) {
	h := newFakeHAL()
	h.ref.unreachable = true
	cfg := DefaultConfig()
	cfg.Sync.Timeout = 2 * time.Second
	cfg.Sync.RetryInterval = 3 * time.Second
	s, err := newSystem(h, cfg)
	if err != nil {
		t.Fatalf("newSystem() = %v", err)
	}

	// Connected at 200 ms, the request times out at 2500 ms.
	runUntil(s, h, 3000)
	if s.face == nil {
		t.Fatalf("face not up after the first sync attempt")
	}
	if got := s.face.Status(); got != timesync.FailedStatus {
		t.Fatalf("status = %q, want %q", got, timesync.FailedStatus)
	}
	if s.face.Clock() != "--:--:--" {
		t.Fatalf("face clock = %q, want placeholder", s.face.Clock())
	}

	// The retry at 5500 ms succeeds on its first poll.
	h.ref.unreachable = false
	runUntil(s, h, 5600)
	if got := s.face.Status(); got != timesync.FailedStatus {
		t.Fatalf("status = %q while retrying, want %q", got, timesync.FailedStatus)
	}
	runUntil(s, h, 7000)
	if s.sync.State() != timesync.Synced {
		t.Fatalf("sync state = %v, want Synced", s.sync.State())
	}
	if got := s.face.Status(); got != "" {
		t.Fatalf("status = %q after sync, want cleared", got)
	}
	if s.face.Clock() != "15:30:45" {
		t.Fatalf("face clock = %q, want 15:30:45", s.face.Clock())
	}

	runUntil(s, h, 60_000)
	if got := s.face.Status(); got != "" {
		t.Fatalf("status = %q long after sync, want cleared", got)
	}
}

func TestUpdateErrorWithoutStartOnFace(t *testing.T) {
	h := newFakeHAL()
	s := newTestSystem(t, h)
	runUntil(s, h, 1100)

	h.upd.hooks.OnError(hal.UpdateErrAuth)
	if got := s.face.Status(); got != "OTA error [0]" {
		t.Fatalf("status = %q, want OTA error [0]", got)
	}
	if _, ok := s.ota.Session().(ota.Failed); !ok {
		t.Fatalf("session = %v, want Failed", s.ota.Session())
	}
}
