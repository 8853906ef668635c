//go:build tinygo && !baremetal

package hal

type memFramebuffer struct {
	w      int
	h      int
	stride int
	buf    []byte
}

func newMemFramebuffer(w, h int) *memFramebuffer {
	stride := w * 2
	return &memFramebuffer{
		w:      w,
		h:      h,
		stride: stride,
		buf:    make([]byte, stride*h),
	}
}

func (f *memFramebuffer) Width() int          { return f.w }
func (f *memFramebuffer) Height() int         { return f.h }
func (f *memFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *memFramebuffer) StrideBytes() int    { return f.stride }
func (f *memFramebuffer) Buffer() []byte      { return f.buf }

func (f *memFramebuffer) ClearRGB(r, g, b uint8) {
	pixel := rgb565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *memFramebuffer) Flush(x, y, w, h int, px []byte) error {
	return blitRGB565(f.buf, f.stride, f.w, f.h, x, y, w, h, px)
}

func (f *memFramebuffer) Present() error {
	// No-op for tinygo host targets.
	return nil
}
