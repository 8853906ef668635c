package console

import (
	"image/color"

	"watch/hal"
	"watch/watchos/ui"

	"tinygo.org/x/drivers"
)

// fbDisplay draws straight into an RGB565 framebuffer.
type fbDisplay struct {
	fb hal.Framebuffer
}

func (d *fbDisplay) usable() ([]byte, bool) {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return nil, false
	}
	buf := d.fb.Buffer()
	return buf, buf != nil
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	buf, ok := d.usable()
	if !ok {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	p := ui.RGB565(c)
	buf[off] = byte(p)
	buf[off+1] = byte(p >> 8)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	buf, ok := d.usable()
	if !ok {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0, y0 := clamp(int(x), 0, w), clamp(int(y), 0, h)
	x1, y1 := clamp(int(x)+int(width), 0, w), clamp(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}
	p := ui.RGB565(c)
	lo, hi := byte(p), byte(p>>8)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

// ScrollUp shifts the picture up by lines and clears the exposed rows.
func (d *fbDisplay) ScrollUp(lines int16, bg color.RGBA) error {
	buf, ok := d.usable()
	if !ok || lines <= 0 {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	n := int(lines)
	if n >= h {
		return d.FillRectangle(0, 0, int16(w), int16(h), bg)
	}
	stride := d.fb.StrideBytes()
	end := h * stride
	if end > len(buf) {
		end = len(buf)
	}
	copy(buf, buf[n*stride:end])
	return d.FillRectangle(0, int16(h-n), int16(w), int16(n), bg)
}

// The framebuffer has no hardware scroll or rotation.
func (d *fbDisplay) SetScroll(int16) {}

func (d *fbDisplay) SetRotation(drivers.Rotation) error { return nil }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
