package ui

import "image/color"

// canvas is the drivers.Displayer widgets draw into. It covers the whole
// screen but only keeps pixels inside the chunk being rendered.
type canvas struct {
	screenW, screenH int16
	area             Area
	buf              []byte
}

func (c *canvas) Size() (x, y int16) { return c.screenW, c.screenH }

func (c *canvas) SetPixel(x, y int16, col color.RGBA) {
	if !c.area.Contains(x, y) {
		return
	}
	off := (int(y-c.area.Y1)*int(c.area.Width()) + int(x-c.area.X1)) * 2
	p := RGB565(col)
	c.buf[off] = byte(p)
	c.buf[off+1] = byte(p >> 8)
}

func (c *canvas) Display() error { return nil }

func (c *canvas) fill(col color.RGBA) {
	p := RGB565(col)
	lo, hi := byte(p), byte(p>>8)
	n := c.area.Size() * 2
	for i := 0; i < n; i += 2 {
		c.buf[i] = lo
		c.buf[i+1] = hi
	}
}

// RGB565 packs c as rrrrrggggggbbbbb.
func RGB565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}
