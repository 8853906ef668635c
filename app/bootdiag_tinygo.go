//go:build tinygo && bootdebug

package app

import (
	"machine"
	"time"
)

// bootDiagStart streams the bring-up state every 250 ms over the logger and
// USB CDC, so a board with a dark screen can still be diagnosed.
func bootDiagStart(s *system) {
	l := s.log
	go func() {
		for {
			line := "bootdiag: net=" + s.net.State().String() + " sync=" + s.sync.State().String()
			if s.face != nil {
				line += " face=up"
			}
			l.WriteLineString(line)
			if usb := machine.USBCDC; usb != nil {
				_, _ = usb.Write([]byte(line + "\r\n"))
			}
			time.Sleep(250 * time.Millisecond)
		}
	}()
}
