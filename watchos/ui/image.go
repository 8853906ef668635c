package ui

import (
	"image/color"
	"math"

	"tinygo.org/x/drivers"
)

// Source is a drawable shape in coordinates relative to its pivot.
type Source interface {
	// Radius bounds every drawn pixel's distance from the pivot.
	Radius() int16
	// At returns the colour at (x, y), or false for transparent.
	At(x, y int16) (color.RGBA, bool)
}

// Image draws a Source rotated around its pivot.
type Image struct {
	e      *Engine
	src    Source
	align  Align
	dx, dy int16
	angle  int16
	hidden bool

	sin, cos float32
	area     Area
}

// NewImage adds src centred on the screen.
func (e *Engine) NewImage(src Source) *Image {
	im := &Image{e: e, src: src, cos: 1}
	im.area = im.layout()
	e.add(im)
	return im
}

// SetAngle rotates the image clockwise, in tenths of a degree.
func (im *Image) SetAngle(a int16) {
	a %= 3600
	if a < 0 {
		a += 3600
	}
	if a == im.angle {
		return
	}
	im.angle = a
	rad := float64(a) * math.Pi / 1800
	im.sin, im.cos = float32(math.Sin(rad)), float32(math.Cos(rad))
	// The bounding square does not depend on the angle.
	if !im.hidden {
		im.e.Invalidate(im.area)
	}
}

func (im *Image) Angle() int16 { return im.angle }

func (im *Image) Align(al Align, dx, dy int16) {
	if !im.hidden {
		im.e.Invalidate(im.area)
	}
	im.align, im.dx, im.dy = al, dx, dy
	im.area = im.layout()
	if !im.hidden {
		im.e.Invalidate(im.area)
	}
}

func (im *Image) Hide() {
	if !im.hidden {
		im.hidden = true
		im.e.Invalidate(im.area)
	}
}

func (im *Image) Show() {
	if im.hidden {
		im.hidden = false
		im.e.Invalidate(im.area)
	}
}

func (im *Image) Hidden() bool { return im.hidden }

// Bounds is the square the image may cover at any angle.
func (im *Image) Bounds() Area { return im.area }

// Pivot returns the screen position of the rotation centre.
func (im *Image) Pivot() (x, y int16) {
	r := im.src.Radius()
	return im.area.X1 + r, im.area.Y1 + r
}

func (im *Image) layout() Area {
	r := im.src.Radius()
	size := 2*r + 1
	x, y := place(im.align, im.e.cfg.Width, im.e.cfg.Height, size, size, im.dx, im.dy)
	return Area{X1: x, Y1: y, X2: x + size - 1, Y2: y + size - 1}
}

func (im *Image) bounds() Area  { return im.area }
func (im *Image) visible() bool { return !im.hidden }

func (im *Image) draw(d drivers.Displayer) {
	c, ok := d.(*canvas)
	if !ok {
		return
	}
	clip := im.area.Intersect(c.area)
	px, py := im.Pivot()
	for y := clip.Y1; y <= clip.Y2; y++ {
		for x := clip.X1; x <= clip.X2; x++ {
			sx, sy := float32(x-px), float32(y-py)
			// Inverse rotation back into source space.
			u := sx*im.cos + sy*im.sin
			v := -sx*im.sin + sy*im.cos
			col, ok := im.src.At(round16(u), round16(v))
			if ok {
				c.SetPixel(x, y, col)
			}
		}
	}
}

func round16(f float32) int16 {
	if f < 0 {
		return int16(f - 0.5)
	}
	return int16(f + 0.5)
}
