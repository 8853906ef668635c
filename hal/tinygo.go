//go:build tinygo && baremetal

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	fb     Framebuffer
	t      *tinyGoTime
	net    Network
	tref   TimeRef
	upd    Updater
}

// New returns the watch HAL: a 320x240 SPI panel, UART logging at
// 115200 8N1 and the null radio. Pins come from tinygo_board.go.
func New() HAL {
	uart := boardUART
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       boardUARTTX,
		RX:       boardUARTRX,
	})
	logger := &uartLogger{uart: uart}

	fb, err := newPanelFramebuffer(panelWidth, panelHeight)
	if err != nil {
		logger.WriteLineString("hal: panel: " + err.Error())
	}

	return &tinyGoHAL{
		logger: logger,
		fb:     fb,
		t:      newTinyGoTime(),
		net:    nullNetwork{},
		tref:   nullTimeRef{},
		upd:    nullUpdater{},
	}
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHAL) Time() Time       { return h.t }
func (h *tinyGoHAL) Network() Network { return h.net }
func (h *tinyGoHAL) TimeRef() TimeRef { return h.tref }
func (h *tinyGoHAL) Updater() Updater { return h.upd }
