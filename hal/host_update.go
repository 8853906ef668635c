//go:build !tinygo

package hal

import (
	"bytes"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"watch/watchos/proto"

	"golang.org/x/crypto/blake2b"
)

// UpdateTransport names the host update transport.
type UpdateTransport string

const (
	UpdateTransportNone UpdateTransport = "none"
	UpdateTransportMQTT UpdateTransport = "mqtt"
	UpdateTransportWS   UpdateTransport = "ws"
)

// HostUpdateConfig configures the host update receiver.
type HostUpdateConfig struct {
	Transport UpdateTransport

	// MQTT.
	Broker   string
	Topic    string
	ClientID string

	// WebSocket.
	Listen string
	Path   string

	// Credentials checked by the transport (MQTT broker login or HTTP basic auth).
	User     string
	Password string

	// FirmwarePath is where a verified image is installed.
	FirmwarePath string
	// StagingDir holds partial images; empty means the firmware directory.
	StagingDir string
	// IdleTimeout aborts a transfer that stops receiving frames.
	IdleTimeout time.Duration
}

// frameQueue is the number of frames buffered between transport and Handle.
const frameQueue = 64

type updateFault struct {
	code UpdateError
	err  error
}

// updateLink is the network side of an update receiver.
type updateLink interface {
	start(r *updateReceiver) error
	Close() error
}

type updateReceiver struct {
	cfg  HostUpdateConfig
	log  Logger
	now  func() time.Time
	link updateLink

	hooks  UpdateHooks
	frames chan []byte
	faults chan updateFault
	done   chan struct{}
	once   sync.Once

	active    bool
	size      uint32
	written   uint32
	digest    [proto.DigestSize]byte
	sum       hash.Hash
	stage     *os.File
	lastFrame time.Time

	// restartPending is set once an image is installed; the restart is due
	// on the following Handle so the success status gets drawn first.
	restartPending bool

	mu         sync.Mutex
	restartDue bool
}

func newHostUpdater(cfg HostUpdateConfig, log Logger) (Updater, error) {
	var link updateLink
	switch cfg.Transport {
	case "", UpdateTransportNone:
		return nullUpdater{}, nil
	case UpdateTransportMQTT:
		if cfg.Broker == "" || cfg.Topic == "" {
			return nil, errors.New("mqtt transport needs broker and topic")
		}
		link = &mqttLink{cfg: cfg}
	case UpdateTransportWS:
		if cfg.Listen == "" {
			return nil, errors.New("ws transport needs a listen address")
		}
		link = &wsLink{cfg: cfg}
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if cfg.FirmwarePath == "" {
		return nil, errors.New("firmware path not set")
	}
	return newUpdateReceiver(cfg, log, link), nil
}

func newUpdateReceiver(cfg HostUpdateConfig, log Logger, link updateLink) *updateReceiver {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	return &updateReceiver{
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		link:   link,
		frames: make(chan []byte, frameQueue),
		faults: make(chan updateFault, 8),
		done:   make(chan struct{}),
	}
}

func (r *updateReceiver) SetHooks(h UpdateHooks) { r.hooks = h }

func (r *updateReceiver) Begin() error {
	if r.link == nil {
		return ErrNotImplemented
	}
	if err := r.link.start(r); err != nil {
		return fmt.Errorf("update transport: %w", err)
	}
	return nil
}

// post queues a frame from a transport goroutine. It blocks while the queue
// is full so the sender is throttled by the transport.
func (r *updateReceiver) post(b []byte) {
	frame := append([]byte(nil), b...)
	select {
	case r.frames <- frame:
	case <-r.done:
	}
}

// fault reports a transport problem. Dropped when faults pile up.
func (r *updateReceiver) fault(code UpdateError, err error) {
	select {
	case r.faults <- updateFault{code: code, err: err}:
	default:
	}
}

// Handle drains queued transport activity and runs the hooks.
func (r *updateReceiver) Handle() {
	if r.restartPending {
		r.mu.Lock()
		r.restartDue = true
		r.mu.Unlock()
		return
	}
	for {
		select {
		case f := <-r.faults:
			r.log.WriteLineString(fmt.Sprintf("update: %s error: %v", f.code, f.err))
			r.fail(f.code)
			continue
		default:
		}
		break
	}

	for i := 0; i < frameQueue; i++ {
		select {
		case b := <-r.frames:
			r.lastFrame = r.now()
			r.handleFrame(b)
			continue
		default:
		}
		break
	}

	if r.active && r.now().Sub(r.lastFrame) > r.cfg.IdleTimeout {
		r.log.WriteLineString("update: transfer timed out")
		r.fail(UpdateErrReceive)
	}
}

func (r *updateReceiver) handleFrame(b []byte) {
	kind, ok := proto.FrameKind(b)
	if !ok {
		r.log.WriteLineString(fmt.Sprintf("update: malformed frame (%d bytes)", len(b)))
		if r.active {
			r.fail(UpdateErrReceive)
		}
		return
	}
	switch kind {
	case proto.KindBegin:
		size, digest, ok := proto.DecodeBeginFrame(b)
		if !ok {
			r.fail(UpdateErrBegin)
			return
		}
		r.begin(size, digest)
	case proto.KindChunk:
		off, data, ok := proto.DecodeChunkFrame(b)
		if !ok {
			r.fail(UpdateErrReceive)
			return
		}
		r.chunk(off, data)
	case proto.KindEnd:
		r.end()
	case proto.KindAbort:
		if r.active {
			r.log.WriteLineString("update: aborted by sender")
			r.fail(UpdateErrReceive)
		}
	}
}

func (r *updateReceiver) begin(size uint32, digest [proto.DigestSize]byte) {
	if r.active {
		r.log.WriteLineString("update: begin during transfer, discarding partial image")
		r.discard()
	}
	if size == 0 {
		r.emitError(UpdateErrBegin)
		return
	}
	dir := r.cfg.StagingDir
	if dir == "" {
		dir = filepath.Dir(r.cfg.FirmwarePath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.log.WriteLineString("update: " + err.Error())
		r.emitError(UpdateErrBegin)
		return
	}
	f, err := os.CreateTemp(dir, "firmware-*.part")
	if err != nil {
		r.log.WriteLineString("update: " + err.Error())
		r.emitError(UpdateErrBegin)
		return
	}
	sum, err := blake2b.New256(nil)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		r.emitError(UpdateErrBegin)
		return
	}

	r.active = true
	r.size = size
	r.written = 0
	r.digest = digest
	r.sum = sum
	r.stage = f
	r.log.WriteLineString(fmt.Sprintf("update: receiving %d bytes", size))
	if r.hooks.OnStart != nil {
		r.hooks.OnStart()
	}
	r.progress()
}

func (r *updateReceiver) chunk(off uint32, data []byte) {
	if !r.active {
		return
	}
	if off != r.written || uint64(off)+uint64(len(data)) > uint64(r.size) {
		r.log.WriteLineString(fmt.Sprintf("update: chunk at %d, want %d", off, r.written))
		r.fail(UpdateErrReceive)
		return
	}
	if _, err := io.MultiWriter(r.stage, r.sum).Write(data); err != nil {
		r.log.WriteLineString("update: " + err.Error())
		r.fail(UpdateErrReceive)
		return
	}
	r.written += uint32(len(data))
	r.progress()
}

func (r *updateReceiver) end() {
	if !r.active {
		return
	}
	if r.written != r.size {
		r.log.WriteLineString(fmt.Sprintf("update: short image %d/%d", r.written, r.size))
		r.fail(UpdateErrEnd)
		return
	}
	if !bytes.Equal(r.sum.Sum(nil), r.digest[:]) {
		r.log.WriteLineString("update: digest mismatch")
		r.fail(UpdateErrEnd)
		return
	}
	name := r.stage.Name()
	if err := r.stage.Close(); err != nil {
		r.log.WriteLineString("update: " + err.Error())
		r.fail(UpdateErrEnd)
		return
	}
	r.stage = nil
	if err := os.Rename(name, r.cfg.FirmwarePath); err != nil {
		os.Remove(name)
		r.log.WriteLineString("update: install: " + err.Error())
		r.fail(UpdateErrEnd)
		return
	}
	r.active = false
	r.log.WriteLineString("update: installed " + r.cfg.FirmwarePath)
	if r.hooks.OnEnd != nil {
		r.hooks.OnEnd()
	}
	r.restartPending = true
}

func (r *updateReceiver) progress() {
	if r.hooks.OnProgress != nil {
		r.hooks.OnProgress(r.written, r.size)
	}
}

// fail ends the transfer in progress (if any) and reports code.
func (r *updateReceiver) fail(code UpdateError) {
	r.discard()
	r.emitError(code)
}

func (r *updateReceiver) emitError(code UpdateError) {
	if r.hooks.OnError != nil {
		r.hooks.OnError(code)
	}
}

func (r *updateReceiver) discard() {
	if r.stage != nil {
		name := r.stage.Name()
		r.stage.Close()
		os.Remove(name)
		r.stage = nil
	}
	r.active = false
	r.written = 0
	r.size = 0
}

func (r *updateReceiver) restartRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restartDue
}

func (r *updateReceiver) Close() error {
	r.once.Do(func() { close(r.done) })
	r.discard()
	if r.link == nil {
		return nil
	}
	return r.link.Close()
}
