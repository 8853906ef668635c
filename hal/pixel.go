package hal

import "errors"

var errShortBlit = errors.New("blit: pixel data too short")

func rgb565(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>2) & 0x3F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 5) | bb
}

func rgb888From565(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 5) & 0x3F
	bb := p & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 63)
	b = uint8((bb * 255) / 31)
	return r, g, b
}

// blitRGB565 copies a w*h block into buf (stride bytes per row, fbW*fbH
// pixels), clipping against the framebuffer bounds.
func blitRGB565(buf []byte, stride, fbW, fbH int, x, y, w, h int, px []byte) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if len(px) < w*h*2 {
		return errShortBlit
	}
	for row := 0; row < h; row++ {
		dy := y + row
		if dy < 0 || dy >= fbH {
			continue
		}
		sx0, dx0, n := 0, x, w
		if dx0 < 0 {
			sx0 = -dx0
			n += dx0
			dx0 = 0
		}
		if dx0+n > fbW {
			n = fbW - dx0
		}
		if n <= 0 {
			continue
		}
		src := px[(row*w+sx0)*2 : (row*w+sx0+n)*2]
		off := dy*stride + dx0*2
		if off+len(src) > len(buf) {
			continue
		}
		copy(buf[off:off+len(src)], src)
	}
	return nil
}
