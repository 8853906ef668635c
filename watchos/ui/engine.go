// Package ui is a small retained-mode widget engine for the watch face.
//
// Widgets invalidate the screen areas they change; the engine redraws dirty
// areas in horizontal chunks of a few lines and hands each chunk to a flush
// callback. The next chunk is only rendered after FlushReady.
package ui

import (
	"image/color"

	"tinygo.org/x/drivers"
)

const maxDirty = 8

// FlushFunc receives a rendered chunk: area.Width()*area.Height() RGB565
// little-endian pixels, row-major. The engine must be told via FlushReady
// once px may be reused.
type FlushFunc func(area Area, px []byte)

// Config sizes the engine.
type Config struct {
	Width  int16
	Height int16
	// BufferLines is the height of a render chunk.
	BufferLines int16
	// RefreshPeriod is the minimum time between redraw passes, in ms.
	RefreshPeriod uint32
	Background    color.RGBA
}

func DefaultConfig() Config {
	return Config{
		Width:         320,
		Height:        240,
		BufferLines:   10,
		RefreshPeriod: 30,
		Background:    color.RGBA{A: 255},
	}
}

// object is anything the engine can draw.
type object interface {
	bounds() Area
	visible() bool
	draw(d drivers.Displayer)
}

// Engine owns the widgets and the render buffer.
type Engine struct {
	cfg   Config
	flush FlushFunc
	objs  []object

	dirty []Area
	queue []Area

	buf    []byte
	canvas canvas

	lastRefresh uint32
	flushing    bool
	job         Area
	jobActive   bool
	nextY       int16
}

// NewEngine returns an engine with the whole screen marked dirty.
func NewEngine(cfg Config, flush FlushFunc) *Engine {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.BufferLines <= 0 {
		cfg.BufferLines = def.BufferLines
	}
	if cfg.BufferLines > cfg.Height {
		cfg.BufferLines = cfg.Height
	}
	e := &Engine{
		cfg:   cfg,
		flush: flush,
		buf:   make([]byte, int(cfg.Width)*int(cfg.BufferLines)*2),
	}
	e.canvas = canvas{screenW: cfg.Width, screenH: cfg.Height, buf: e.buf}
	e.Invalidate(e.Screen())
	return e
}

// Screen is the full display area.
func (e *Engine) Screen() Area {
	return Area{X1: 0, Y1: 0, X2: e.cfg.Width - 1, Y2: e.cfg.Height - 1}
}

func (e *Engine) add(o object) {
	e.objs = append(e.objs, o)
}

// Invalidate marks a for redraw. Overlapping or adjacent areas are merged.
func (e *Engine) Invalidate(a Area) {
	a = a.Intersect(e.Screen())
	if a.Empty() {
		return
	}
	for {
		merged := false
		for i := 0; i < len(e.dirty); i++ {
			if e.dirty[i].Touches(a) {
				a = a.Union(e.dirty[i])
				e.dirty = append(e.dirty[:i], e.dirty[i+1:]...)
				merged = true
				break
			}
		}
		if !merged {
			break
		}
	}
	e.dirty = append(e.dirty, a)
	if len(e.dirty) > maxDirty {
		var all Area
		all.X2, all.Y2 = -1, -1
		for _, d := range e.dirty {
			all = all.Union(d)
		}
		e.dirty = append(e.dirty[:0], all)
	}
}

// Dirty returns the areas waiting for the next redraw pass.
func (e *Engine) Dirty() []Area {
	return append([]Area(nil), e.dirty...)
}

// Idle reports whether nothing is waiting to be drawn or flushed.
func (e *Engine) Idle() bool {
	return !e.flushing && !e.jobActive && len(e.queue) == 0 && len(e.dirty) == 0
}

// FlushReady tells the engine the last flushed chunk has been consumed.
func (e *Engine) FlushReady() {
	e.flushing = false
}

// TimerHandler advances rendering. It starts a redraw pass at most every
// RefreshPeriod and keeps rendering chunks while flushes complete
// synchronously.
func (e *Engine) TimerHandler(now uint32) {
	if e.flushing {
		return
	}
	if !e.jobActive && len(e.queue) == 0 {
		if len(e.dirty) == 0 || now-e.lastRefresh < e.cfg.RefreshPeriod {
			return
		}
		e.lastRefresh = now
		e.queue = append(e.queue[:0], e.dirty...)
		e.dirty = e.dirty[:0]
	}

	for !e.flushing {
		if !e.jobActive {
			if len(e.queue) == 0 {
				return
			}
			e.job = e.queue[0]
			e.queue = e.queue[1:]
			e.nextY = e.job.Y1
			e.jobActive = true
		}

		chunk := e.job
		chunk.Y1 = e.nextY
		chunk.Y2 = min16(e.nextY+e.cfg.BufferLines-1, e.job.Y2)
		// Narrow jobs can stack more rows into the buffer.
		if rows := int16(len(e.buf) / 2 / int(chunk.Width())); rows > e.cfg.BufferLines {
			chunk.Y2 = min16(e.nextY+rows-1, e.job.Y2)
		}
		e.nextY = chunk.Y2 + 1
		if e.nextY > e.job.Y2 {
			e.jobActive = false
		}

		px := e.render(chunk)
		e.flushing = true
		if e.flush != nil {
			e.flush(chunk, px)
		} else {
			e.flushing = false
		}
	}
}

func (e *Engine) render(chunk Area) []byte {
	e.canvas.area = chunk
	e.canvas.fill(e.cfg.Background)
	for _, o := range e.objs {
		if !o.visible() || !o.bounds().Overlaps(chunk) {
			continue
		}
		o.draw(&e.canvas)
	}
	return e.buf[:chunk.Size()*2]
}
