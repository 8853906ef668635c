package ui

// Area is a screen rectangle with inclusive corners.
type Area struct {
	X1, Y1, X2, Y2 int16
}

func (a Area) Width() int16  { return a.X2 - a.X1 + 1 }
func (a Area) Height() int16 { return a.Y2 - a.Y1 + 1 }
func (a Area) Empty() bool   { return a.X2 < a.X1 || a.Y2 < a.Y1 }

// Size is the pixel count.
func (a Area) Size() int {
	if a.Empty() {
		return 0
	}
	return int(a.Width()) * int(a.Height())
}

func (a Area) Contains(x, y int16) bool {
	return x >= a.X1 && x <= a.X2 && y >= a.Y1 && y <= a.Y2
}

// Intersect returns the overlap of a and b, possibly empty.
func (a Area) Intersect(b Area) Area {
	return Area{
		X1: max16(a.X1, b.X1),
		Y1: max16(a.Y1, b.Y1),
		X2: min16(a.X2, b.X2),
		Y2: min16(a.Y2, b.Y2),
	}
}

func (a Area) Overlaps(b Area) bool {
	return !a.Intersect(b).Empty()
}

// Touches reports whether a and b overlap or share an edge.
func (a Area) Touches(b Area) bool {
	return a.X1 <= b.X2+1 && b.X1 <= a.X2+1 && a.Y1 <= b.Y2+1 && b.Y1 <= a.Y2+1
}

// Union returns the smallest area covering a and b.
func (a Area) Union(b Area) Area {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return Area{
		X1: min16(a.X1, b.X1),
		Y1: min16(a.Y1, b.Y1),
		X2: max16(a.X2, b.X2),
		Y2: max16(a.Y2, b.Y2),
	}
}

func min16(a, b int16) int16 {
	if a < b {
		return a
	}
	return b
}

func max16(a, b int16) int16 {
	if a > b {
		return a
	}
	return b
}
