package ui

// Align places a widget relative to the screen.
type Align uint8

const (
	AlignCenter Align = iota
	AlignTopLeft
	AlignTopMid
	AlignTopRight
	AlignBottomLeft
	AlignBottomMid
	AlignBottomRight
	AlignLeftMid
	AlignRightMid
)

// place returns the top-left corner of a w*h box aligned on a sw*sh screen
// and shifted by dx, dy.
func place(al Align, sw, sh, w, h, dx, dy int16) (x, y int16) {
	switch al {
	case AlignTopLeft, AlignBottomLeft, AlignLeftMid:
		x = 0
	case AlignTopRight, AlignBottomRight, AlignRightMid:
		x = sw - w
	default:
		x = (sw - w) / 2
	}
	switch al {
	case AlignTopLeft, AlignTopMid, AlignTopRight:
		y = 0
	case AlignBottomLeft, AlignBottomMid, AlignBottomRight:
		y = sh - h
	default:
		y = (sh - h) / 2
	}
	return x + dx, y + dy
}
