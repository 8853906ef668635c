// Package console is the boot-time text screen used until the clock face
// takes over the display.
package console

import (
	"watch/hal"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// history is how many printed lines Lines keeps.
const history = 32

// Console prints status lines to a scrolling terminal on the framebuffer.
type Console struct {
	fb    hal.Framebuffer
	d     *fbDisplay
	t     *tinyterm.Terminal
	lines []string
	dirty bool
}

// New clears fb and returns a console drawing on it.
func New(fb hal.Framebuffer) *Console {
	c := &Console{fb: fb, d: &fbDisplay{fb: fb}}
	c.Clear()
	return c
}

// Clear blanks the screen and resets the cursor.
func (c *Console) Clear() {
	c.t = tinyterm.NewTerminal(c.d)
	c.t.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        6,
		UseSoftwareScroll: true,
	})
	if c.fb != nil {
		c.fb.ClearRGB(0, 0, 0)
	}
	c.lines = c.lines[:0]
	c.dirty = true
}

// Println writes s on its own line.
func (c *Console) Println(s string) {
	_, _ = c.t.Write([]byte(s + "\r\n"))
	c.lines = append(c.lines, s)
	if len(c.lines) > history {
		c.lines = append(c.lines[:0], c.lines[len(c.lines)-history:]...)
	}
	c.dirty = true
}

// ShowStatus prints msg.
func (c *Console) ShowStatus(msg string) { c.Println(msg) }

// Lines returns the most recently printed lines, oldest first.
func (c *Console) Lines() []string {
	return append([]string(nil), c.lines...)
}

// Refresh presents the framebuffer if anything was printed since the last
// call.
func (c *Console) Refresh() error {
	if !c.dirty {
		return nil
	}
	c.dirty = false
	return c.d.Display()
}
