//go:build tinygo && baremetal

package hal

import "machine"

// Pin assignments for the development board: a Raspberry Pi Pico (RP2040)
// wired to a 320x240 ILI9342 SPI panel. The null radio stands in for Wi-Fi,
// which the RP2040 does not have; other boards replace this file.
var (
	boardUART   = machine.UART0
	boardUARTTX = machine.GP0
	boardUARTRX = machine.GP1

	boardPanelSPI = machine.SPI1
	boardPanelSCK = machine.GP10
	boardPanelSDO = machine.GP11
	boardPanelSDI = machine.GP12
	boardPanelCS  = machine.GP13
	boardPanelDC  = machine.GP14
	boardPanelRST = machine.GP15
)
