//go:build tinygo && baremetal

package hal

import (
	"errors"
	"machine"
	"time"
)

const (
	panelWidth  = 320
	panelHeight = 240
)

// ili9342 drives the 320x240 watch panel over the board SPI bus.
type ili9342 struct {
	spi machine.SPI
	cs  machine.Pin
	dc  machine.Pin
	rst machine.Pin

	txBuf []byte
}

func initILI9342() (*ili9342, error) {
	if boardPanelSPI == nil {
		return nil, errors.New("panel SPI unavailable")
	}

	boardPanelSPI.Configure(machine.SPIConfig{
		SCK:       boardPanelSCK,
		SDO:       boardPanelSDO,
		SDI:       boardPanelSDI,
		Frequency: 40_000_000,
	})

	lcd := &ili9342{
		spi:   *boardPanelSPI,
		cs:    boardPanelCS,
		dc:    boardPanelDC,
		rst:   boardPanelRST,
		txBuf: make([]byte, 2*panelWidth),
	}

	lcd.cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.dc.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	lcd.cs.High()
	lcd.dc.High()
	lcd.rst.High()

	lcd.reset()
	lcd.init()
	return lcd, nil
}

func (d *ili9342) reset() {
	d.rst.Low()
	time.Sleep(20 * time.Millisecond)
	d.rst.High()
	time.Sleep(120 * time.Millisecond)
}

func (d *ili9342) init() {
	d.cmd(0x01) // SWRESET
	time.Sleep(120 * time.Millisecond)
	d.cmd(0x3A, 0x55) // COLMOD 16bpp
	d.cmd(0x36, 0x08) // MADCTL BGR, landscape native
	d.cmd(0x21)       // INVON
	d.cmd(0x11)       // SLPOUT
	time.Sleep(120 * time.Millisecond)
	d.cmd(0x29) // DISPON
}

func (d *ili9342) cmd(cmd byte, data ...byte) {
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{cmd}, nil)
	d.dc.High()
	if len(data) > 0 {
		d.spi.Tx(data, nil)
	}
	d.cs.High()
}

func (d *ili9342) setWindow(x0, y0, x1, y1 uint16) {
	d.cmd(0x2A, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1))
	d.cmd(0x2B, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1))
	d.cmd(0x2C)
}

// blit pushes a w*h block of little-endian RGB565 pixels; the panel expects
// big-endian.
func (d *ili9342) blit(x, y, w, h int, px []byte) {
	d.setWindow(uint16(x), uint16(y), uint16(x+w-1), uint16(y+h-1))

	d.cs.Low()
	d.dc.High()
	chunk := d.txBuf
	total := w * h * 2
	for off := 0; off < total; {
		n := len(chunk)
		if n > total-off {
			n = total - off
		}
		src := px[off : off+n]
		for i := 0; i+1 < n; i += 2 {
			chunk[i] = src[i+1]
			chunk[i+1] = src[i]
		}
		d.spi.Tx(chunk[:n], nil)
		off += n
	}
	d.cs.High()
}

// panelFramebuffer keeps a shadow copy of the panel and forwards every
// flushed region to it.
type panelFramebuffer struct {
	w      int
	h      int
	stride int
	buf    []byte

	lcd *ili9342
}

func newPanelFramebuffer(w, h int) (*panelFramebuffer, error) {
	f := &panelFramebuffer{
		w:      w,
		h:      h,
		stride: w * 2,
		buf:    make([]byte, w*h*2),
	}
	lcd, err := initILI9342()
	if err != nil {
		return f, err
	}
	f.lcd = lcd
	return f, nil
}

func (f *panelFramebuffer) Width() int          { return f.w }
func (f *panelFramebuffer) Height() int         { return f.h }
func (f *panelFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *panelFramebuffer) StrideBytes() int    { return f.stride }
func (f *panelFramebuffer) Buffer() []byte      { return f.buf }

func (f *panelFramebuffer) ClearRGB(r, g, b uint8) {
	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *panelFramebuffer) Flush(x, y, w, h int, px []byte) error {
	if err := blitRGB565(f.buf, f.stride, f.w, f.h, x, y, w, h, px); err != nil {
		return err
	}
	if f.lcd == nil {
		return nil
	}
	if x < 0 || y < 0 || x+w > f.w || y+h > f.h {
		// Partially visible blocks go out from the shadow copy.
		return f.Present()
	}
	f.lcd.blit(x, y, w, h, px)
	return nil
}

func (f *panelFramebuffer) Present() error {
	if f.lcd == nil {
		return ErrNotImplemented
	}
	f.lcd.blit(0, 0, f.w, f.h, f.buf)
	return nil
}
