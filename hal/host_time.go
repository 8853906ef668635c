//go:build !tinygo

package hal

import "time"

type hostTime struct {
	start time.Time
	now   func() time.Time
}

func newHostTime() *hostTime {
	return newHostTimeWithClock(time.Now)
}

func newHostTimeWithClock(now func() time.Time) *hostTime {
	return &hostTime{start: now(), now: now}
}

func (t *hostTime) Millis() uint32 {
	return uint32(t.now().Sub(t.start) / time.Millisecond)
}
