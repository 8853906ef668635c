package ui

import (
	"image/color"
	"testing"

	"tinygo.org/x/tinyfont/proggy"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

var testFont = Font{Face: &proggy.TinySZ8pt7b, Height: 12, Offset: 9}

// screen collects flushed chunks into a full-size RGB565 image.
type screen struct {
	w, h    int16
	px      []uint16
	flushes []Area
	e       *Engine
	async   bool
}

func newScreen(cfg Config) *screen {
	s := &screen{w: cfg.Width, h: cfg.Height, px: make([]uint16, int(cfg.Width)*int(cfg.Height))}
	s.e = NewEngine(cfg, s.flush)
	return s
}

func (s *screen) flush(a Area, px []byte) {
	if len(px) != a.Size()*2 {
		panic("chunk size mismatch")
	}
	s.flushes = append(s.flushes, a)
	i := 0
	for y := a.Y1; y <= a.Y2; y++ {
		for x := a.X1; x <= a.X2; x++ {
			s.px[int(y)*int(s.w)+int(x)] = uint16(px[i]) | uint16(px[i+1])<<8
			i += 2
		}
	}
	if !s.async {
		s.e.FlushReady()
	}
}

func (s *screen) at(x, y int16) uint16 { return s.px[int(y)*int(s.w)+int(x)] }

func (s *screen) anyIn(a Area, c uint16) bool {
	for y := a.Y1; y <= a.Y2; y++ {
		for x := a.X1; x <= a.X2; x++ {
			if s.at(x, y) == c {
				return true
			}
		}
	}
	return false
}

func TestInitialRedrawInChunks(t *testing.T) {
	s := newScreen(DefaultConfig())
	s.e.TimerHandler(10)
	if len(s.flushes) != 0 {
		t.Fatalf("flushed %d chunks before the refresh period", len(s.flushes))
	}
	s.e.TimerHandler(30)
	if len(s.flushes) != 24 {
		t.Fatalf("flushed %d chunks, want 24", len(s.flushes))
	}
	var covered int
	for i, a := range s.flushes {
		if a.Width() != 320 || a.Height() != 10 {
			t.Fatalf("chunk %d = %+v, want 320x10", i, a)
		}
		if a.Y1 != int16(i*10) {
			t.Fatalf("chunk %d starts at row %d, want %d", i, a.Y1, i*10)
		}
		covered += a.Size()
	}
	if covered != 320*240 {
		t.Fatalf("covered %d pixels, want %d", covered, 320*240)
	}
	if !s.e.Idle() {
		t.Fatal("engine not idle after full redraw")
	}
}

func TestNextChunkWaitsForFlushReady(t *testing.T) {
	s := newScreen(DefaultConfig())
	s.async = true
	s.e.TimerHandler(30)
	if len(s.flushes) != 1 {
		t.Fatalf("flushed %d chunks without FlushReady, want 1", len(s.flushes))
	}
	s.e.TimerHandler(35)
	if len(s.flushes) != 1 {
		t.Fatalf("flushed %d chunks while the previous flush is pending, want 1", len(s.flushes))
	}
	s.e.FlushReady()
	s.e.TimerHandler(40)
	if len(s.flushes) != 2 {
		t.Fatalf("flushed %d chunks after FlushReady, want 2", len(s.flushes))
	}
	// A pass in progress continues without waiting for the refresh period.
	if s.flushes[1].Y1 != 10 {
		t.Fatalf("second chunk starts at %d, want 10", s.flushes[1].Y1)
	}
}

func TestLabelRedrawsOnlyItsArea(t *testing.T) {
	s := newScreen(DefaultConfig())
	l := s.e.NewLabel(testFont, white)
	l.Align(AlignTopRight, -4, 4)
	l.SetText("2024-01-01")
	s.e.TimerHandler(30)

	b := l.Bounds()
	if b.X2 != 320-1-4 || b.Y1 != 4 {
		t.Fatalf("Bounds() = %+v, want right edge 315 and top 4", b)
	}
	if !s.anyIn(b, RGB565(white)) {
		t.Fatal("label text not drawn")
	}

	s.flushes = nil
	l.SetText("2024-01-02")
	s.e.TimerHandler(40)
	if len(s.flushes) != 0 {
		t.Fatal("redraw started before the refresh period elapsed")
	}
	s.e.TimerHandler(60)
	if len(s.flushes) == 0 {
		t.Fatal("no redraw after SetText")
	}
	for _, a := range s.flushes {
		if !a.Overlaps(b) {
			t.Fatalf("flushed %+v outside the label %+v", a, b)
		}
	}

	s.flushes = nil
	l.SetText("2024-01-02")
	s.e.TimerHandler(200)
	if len(s.flushes) != 0 {
		t.Fatal("unchanged text caused a redraw")
	}
}

func TestHideClearsLabel(t *testing.T) {
	s := newScreen(DefaultConfig())
	l := s.e.NewLabel(testFont, white)
	l.SetText("status")
	s.e.TimerHandler(30)
	b := l.Bounds()
	l.Hide()
	s.e.TimerHandler(60)
	if s.anyIn(b, RGB565(white)) {
		t.Fatal("hidden label still on screen")
	}
}

func TestImageRotation(t *testing.T) {
	s := newScreen(DefaultConfig())
	hand := s.e.NewImage(HandSource{Length: 40, Width: 3, Color: red})
	s.e.TimerHandler(30)
	px, py := hand.Pivot()
	if px < 159 || px > 160 || py < 119 || py > 120 {
		t.Fatalf("Pivot() = %d,%d, want screen centre", px, py)
	}
	if s.at(px, py-30) != RGB565(red) {
		t.Fatal("unrotated hand does not point up")
	}
	if s.at(px+30, py) == RGB565(red) {
		t.Fatal("unrotated hand drawn to the right")
	}

	hand.SetAngle(900)
	s.e.TimerHandler(60)
	if s.at(px+30, py) != RGB565(red) {
		t.Fatal("hand at 900 does not point right")
	}
	if s.at(px, py-30) == RGB565(red) {
		t.Fatal("hand at 900 still points up")
	}

	hand.SetAngle(3600 + 1800)
	if hand.Angle() != 1800 {
		t.Fatalf("Angle() = %d, want 1800", hand.Angle())
	}
}

func TestInvalidateMerges(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	e.TimerHandler(30)
	if !e.Idle() {
		t.Fatal("engine without flush callback not idle")
	}
	e.Invalidate(Area{0, 0, 9, 9})
	e.Invalidate(Area{10, 0, 19, 9})
	e.Invalidate(Area{100, 100, 109, 109})
	e.Invalidate(Area{-50, -50, -10, -10})
	got := e.Dirty()
	if len(got) != 2 {
		t.Fatalf("Dirty() = %+v, want 2 areas", got)
	}
	if got[0] != (Area{0, 0, 19, 9}) {
		t.Fatalf("merged area = %+v, want {0 0 19 9}", got[0])
	}
}

func TestPlace(t *testing.T) {
	tests := []struct {
		al     Align
		dx, dy int16
		x, y   int16
	}{
		{AlignCenter, 0, 0, 150, 115},
		{AlignTopRight, -4, 4, 296, 4},
		{AlignBottomLeft, 4, -4, 4, 226},
		{AlignBottomRight, -4, -4, 296, 226},
	}
	for _, tt := range tests {
		x, y := place(tt.al, 320, 240, 20, 10, tt.dx, tt.dy)
		if x != tt.x || y != tt.y {
			t.Fatalf("place(%d) = %d,%d, want %d,%d", tt.al, x, y, tt.x, tt.y)
		}
	}
}
