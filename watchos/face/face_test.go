package face

import (
	"net/netip"
	"testing"

	"watch/watchos/clocksrc"
	"watch/watchos/ui"
)

func TestHourAngleRange(t *testing.T) {
	for h := 0; h < 24; h++ {
		for m := 0; m < 60; m++ {
			a := HourAngle(h, m)
			if a < 0 || a >= 3600 {
				t.Fatalf("HourAngle(%d, %d) = %d, want [0, 3600)", h, m, a)
			}
		}
	}
}

func TestHourAngleMonotonicWithinHalfDay(t *testing.T) {
	prev := int16(-1)
	for h := 0; h < 12; h++ {
		for m := 0; m < 60; m++ {
			a := HourAngle(h, m)
			if a < prev {
				t.Fatalf("HourAngle(%d, %d) = %d, went back from %d", h, m, a, prev)
			}
			prev = a
		}
	}
	if got := HourAngle(12, 0); got != 0 {
		t.Fatalf("HourAngle(12, 0) = %d, want 0", got)
	}
	if got := HourAngle(15, 30); got != 3*300+2*60 {
		t.Fatalf("HourAngle(15, 30) = %d, want %d", got, 3*300+2*60)
	}
}

func TestMinuteSecondAngles(t *testing.T) {
	for v := 0; v < 60; v++ {
		if got := MinuteAngle(v); got != int16(v*60) || got > 3540 {
			t.Fatalf("MinuteAngle(%d) = %d, want %d", v, got, v*60)
		}
		if got := SecondAngle(v); got != int16(v*60) || got > 3540 {
			t.Fatalf("SecondAngle(%d) = %d, want %d", v, got, v*60)
		}
	}
}

func newTestFace() (*ui.Engine, *Face) {
	e := ui.NewEngine(ui.DefaultConfig(), nil)
	return e, New(e)
}

func TestPlaceholdersUntilSynced(t *testing.T) {
	_, f := newTestFace()
	if f.Date() != datePlaceholder || f.Clock() != timePlaceholder {
		t.Fatalf("initial labels = %q %q, want placeholders", f.Date(), f.Clock())
	}
	if _, _, _, shown := f.Angles(); shown {
		t.Fatalf("hands shown before sync")
	}

	cal := clocksrc.Calendar{Year: 2024, Month: 3, Day: 9, Hour: 15, Minute: 30, Second: 45}
	f.Update(cal, true)
	if f.Date() != "2024-03-09" || f.Clock() != "15:30:45" {
		t.Fatalf("labels = %q %q, want 2024-03-09 15:30:45", f.Date(), f.Clock())
	}
	h, m, s, shown := f.Angles()
	if !shown {
		t.Fatalf("hands hidden after sync")
	}
	if h != HourAngle(15, 30) || m != 1800 || s != 2700 {
		t.Fatalf("Angles() = %d %d %d, want %d 1800 2700", h, m, s, HourAngle(15, 30))
	}

	f.Update(clocksrc.Calendar{}, false)
	if f.Date() != datePlaceholder || f.Clock() != timePlaceholder {
		t.Fatalf("labels after losing sync = %q %q", f.Date(), f.Clock())
	}
	if _, _, _, shown := f.Angles(); shown {
		t.Fatalf("hands shown after losing sync")
	}
}

func TestStatusAndAddr(t *testing.T) {
	e, f := newTestFace()
	if f.Status() != "" {
		t.Fatalf("Status() = %q, want empty", f.Status())
	}
	for !e.Idle() {
		e.TimerHandler(1000)
	}

	f.ShowStatus("OTA updating: 10/100")
	if f.Status() != "OTA updating: 10/100" {
		t.Fatalf("Status() = %q", f.Status())
	}
	if e.Idle() {
		t.Fatalf("status change did not invalidate the screen")
	}
	f.ShowStatus("")
	if f.Status() != "" {
		t.Fatalf("Status() = %q after clearing", f.Status())
	}

	f.ShowAddr(netip.MustParseAddr("192.168.1.20"))
	if got := f.ip.Text(); got != "IP: 192.168.1.20" {
		t.Fatalf("ip label = %q", got)
	}
	f.ShowAddr(netip.Addr{})
	if got := f.ip.Text(); got != "IP: 0.0.0.0" {
		t.Fatalf("ip label = %q", got)
	}
}
