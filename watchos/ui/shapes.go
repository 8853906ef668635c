package ui

import (
	"image/color"
	"math"
)

// HandSource is a clock hand pointing at 12 o'clock when unrotated.
type HandSource struct {
	Length int16
	// Tail extends past the pivot.
	Tail  int16
	Width int16
	Color color.RGBA
}

func (h HandSource) Radius() int16 {
	r := h.Length
	if h.Tail > r {
		r = h.Tail
	}
	return r + h.Width
}

func (h HandSource) At(x, y int16) (color.RGBA, bool) {
	half := h.Width / 2
	if x < -half || x > half || y < -h.Length || y > h.Tail {
		return color.RGBA{}, false
	}
	return h.Color, true
}

// DialSource is a ring with twelve hour ticks and a centre cap.
type DialSource struct {
	R     int16
	Ring  color.RGBA
	Ticks color.RGBA
	Cap   color.RGBA

	dirs [12][2]float32
	init bool
}

// NewDialSource precomputes the tick directions.
func NewDialSource(r int16, ring, ticks, center color.RGBA) *DialSource {
	d := &DialSource{R: r, Ring: ring, Ticks: ticks, Cap: center}
	for i := range d.dirs {
		rad := float64(i) * math.Pi / 6
		d.dirs[i] = [2]float32{float32(math.Sin(rad)), float32(-math.Cos(rad))}
	}
	d.init = true
	return d
}

func (d *DialSource) Radius() int16 { return d.R }

func (d *DialSource) At(x, y int16) (color.RGBA, bool) {
	r := int32(d.R)
	d2 := int32(x)*int32(x) + int32(y)*int32(y)
	switch {
	case d2 > r*r:
		return color.RGBA{}, false
	case d2 >= (r-3)*(r-3):
		return d.Ring, true
	case d2 <= 16:
		return d.Cap, true
	}
	if !d.init || d2 < (r-14)*(r-14) || d2 > (r-5)*(r-5) {
		return color.RGBA{}, false
	}
	fx, fy := float32(x), float32(y)
	for _, u := range d.dirs {
		along := fx*u[0] + fy*u[1]
		across := fx*u[1] - fy*u[0]
		if along > 0 && across > -1.5 && across < 1.5 {
			return d.Ticks, true
		}
	}
	return color.RGBA{}, false
}
