package ui

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Font is a tinyfont face plus the line metrics the engine needs.
type Font struct {
	Face tinyfont.Fonter
	// Height is the line height in pixels.
	Height int16
	// Offset is the baseline distance from the top of the line.
	Offset int16
}

// Label is a single line of text.
type Label struct {
	e      *Engine
	font   Font
	color  color.RGBA
	text   string
	align  Align
	dx, dy int16
	hidden bool

	area Area
}

// NewLabel adds an empty label, centred until aligned.
func (e *Engine) NewLabel(font Font, c color.RGBA) *Label {
	l := &Label{e: e, font: font, color: c}
	l.area = l.layout()
	e.add(l)
	return l
}

func (l *Label) Text() string { return l.text }

// SetText replaces the text, redrawing only if it changed.
func (l *Label) SetText(s string) {
	if s == l.text {
		return
	}
	l.update(func() { l.text = s })
}

// Align positions the label relative to the screen.
func (l *Label) Align(al Align, dx, dy int16) {
	l.update(func() { l.align, l.dx, l.dy = al, dx, dy })
}

func (l *Label) SetColor(c color.RGBA) {
	if c == l.color {
		return
	}
	l.update(func() { l.color = c })
}

func (l *Label) Hide() {
	if !l.hidden {
		l.update(func() { l.hidden = true })
	}
}

func (l *Label) Show() {
	if l.hidden {
		l.update(func() { l.hidden = false })
	}
}

func (l *Label) Hidden() bool { return l.hidden }

// Bounds is the screen area the label currently covers.
func (l *Label) Bounds() Area { return l.area }

func (l *Label) update(change func()) {
	if !l.hidden {
		l.e.Invalidate(l.area)
	}
	change()
	l.area = l.layout()
	if !l.hidden {
		l.e.Invalidate(l.area)
	}
}

func (l *Label) layout() Area {
	if l.text == "" || l.font.Face == nil {
		return Area{X1: 0, Y1: 0, X2: -1, Y2: -1}
	}
	_, outbox := tinyfont.LineWidth(l.font.Face, l.text)
	w := int16(outbox)
	h := l.font.Height
	x, y := place(l.align, l.e.cfg.Width, l.e.cfg.Height, w, h, l.dx, l.dy)
	return Area{X1: x, Y1: y, X2: x + w - 1, Y2: y + h - 1}
}

func (l *Label) bounds() Area  { return l.area }
func (l *Label) visible() bool { return !l.hidden && !l.area.Empty() }

func (l *Label) draw(d drivers.Displayer) {
	tinyfont.WriteLine(d, l.font.Face, l.area.X1, l.area.Y1+l.font.Offset, l.text, l.color)
}
