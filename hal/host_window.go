//go:build !tinygo && cgo

package hal

import (
	"watch/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow starts a desktop window that displays the framebuffer.
// It blocks until the window closes or the firmware asks for a restart.
func RunWindow(hcfg HostConfig, newApp func(HAL) func() error) error {
	h := newHostHAL(hcfg)
	defer h.close()
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	scale := hcfg.Scale
	if scale <= 0 {
		scale = 2
	}
	ebiten.SetWindowTitle("watch (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*scale, h.fb.height*scale)
	// The UI task runs every 5 ms.
	ebiten.SetTPS(200)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *hostHAL
	rgba    []byte
	fbImg   *ebiten.Image
	scratch []byte
	step    func() error
}

func (g *hostGame) Update() error {
	return g.h.step(g.step)
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.fbImg == nil {
		g.rgba = make([]byte, fb.width*fb.height*4)
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	fb.snapshotRGB565(g.scratch)

	src := g.scratch
	dst := g.rgba
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(dst)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
