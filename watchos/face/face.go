package face

import (
	"image/color"
	"net/netip"

	"watch/watchos/clocksrc"
	"watch/watchos/ui"

	"tinygo.org/x/tinyfont/proggy"
)

const (
	datePlaceholder = "----------"
	timePlaceholder = "--:--:--"
)

var (
	fg        = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	dim       = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	ringColor = color.RGBA{R: 90, G: 90, B: 110, A: 255}
	hourColor = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	minColor  = color.RGBA{R: 200, G: 200, B: 255, A: 255}
	secColor  = color.RGBA{R: 255, G: 60, B: 60, A: 255}
	statusFG  = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

var (
	textFont  = ui.Font{Face: &proggy.TinySZ8pt7b, Height: 12, Offset: 9}
	smallFont = ui.Font{Face: &proggy.TinySZ8pt7b, Height: 10, Offset: 7}
)

// Face is the clock face: date, time and address labels, the dial with
// three hands, and a centred status line.
type Face struct {
	date   *ui.Label
	ip     *ui.Label
	clock  *ui.Label
	dial   *ui.Image
	hour   *ui.Image
	minute *ui.Image
	second *ui.Image
	status *ui.Label
}

// New builds the face on e. The hands stay hidden until the first Update
// with a synchronized time.
func New(e *ui.Engine) *Face {
	f := &Face{}

	f.date = e.NewLabel(textFont, fg)
	f.date.SetText(datePlaceholder)
	f.date.Align(ui.AlignTopRight, -4, 4)

	f.ip = e.NewLabel(smallFont, dim)
	f.ip.SetText("IP: 0.0.0.0")
	f.ip.Align(ui.AlignBottomRight, -4, -4)

	f.clock = e.NewLabel(textFont, fg)
	f.clock.SetText(timePlaceholder)
	f.clock.Align(ui.AlignBottomLeft, 4, -4)

	f.dial = e.NewImage(ui.NewDialSource(100, ringColor, fg, fg))
	f.hour = e.NewImage(ui.HandSource{Length: 50, Tail: 8, Width: 5, Color: hourColor})
	f.minute = e.NewImage(ui.HandSource{Length: 76, Tail: 10, Width: 3, Color: minColor})
	f.second = e.NewImage(ui.HandSource{Length: 88, Tail: 14, Width: 1, Color: secColor})
	for _, h := range f.hands() {
		h.Hide()
	}

	f.status = e.NewLabel(textFont, statusFG)
	f.status.Hide()
	return f
}

func (f *Face) hands() []*ui.Image {
	return []*ui.Image{f.hour, f.minute, f.second}
}

// ShowAddr sets the address label.
func (f *Face) ShowAddr(a netip.Addr) {
	if !a.IsValid() {
		f.ip.SetText("IP: 0.0.0.0")
		return
	}
	f.ip.SetText("IP: " + a.String())
}

// Update shows cal if synced, otherwise the placeholders with hands hidden.
func (f *Face) Update(cal clocksrc.Calendar, synced bool) {
	if !synced {
		f.date.SetText(datePlaceholder)
		f.clock.SetText(timePlaceholder)
		for _, h := range f.hands() {
			h.Hide()
		}
		return
	}
	f.date.SetText(cal.Date())
	f.clock.SetText(cal.Clock())
	f.hour.SetAngle(HourAngle(cal.Hour, cal.Minute))
	f.minute.SetAngle(MinuteAngle(cal.Minute))
	f.second.SetAngle(SecondAngle(cal.Second))
	for _, h := range f.hands() {
		h.Show()
	}
}

// ShowStatus displays msg centred over the face; an empty msg hides it.
func (f *Face) ShowStatus(msg string) {
	if msg == "" {
		f.status.Hide()
		return
	}
	f.status.SetText(msg)
	f.status.Show()
}

// Status returns the centred status text, empty if hidden.
func (f *Face) Status() string {
	if f.status.Hidden() {
		return ""
	}
	return f.status.Text()
}

// Date and Clock return the label texts.
func (f *Face) Date() string  { return f.date.Text() }
func (f *Face) Clock() string { return f.clock.Text() }

// Angles returns the current hand angles and whether the hands are shown.
func (f *Face) Angles() (hour, minute, second int16, shown bool) {
	return f.hour.Angle(), f.minute.Angle(), f.second.Angle(), !f.hour.Hidden()
}
