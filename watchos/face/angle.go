// Package face lays out the clock face and keeps it in step with the
// synchronized time.
package face

// Angles are in tenths of a degree, clockwise from 12 o'clock, in [0, 3600).

// HourAngle advances the hour hand in 6° steps every 12 minutes.
func HourAngle(hour, minute int) int16 {
	return int16((hour%12)*300 + (minute/12%12)*60)
}

func MinuteAngle(minute int) int16 {
	return int16((minute % 60) * 60)
}

func SecondAngle(second int) int16 {
	return int16((second % 60) * 60)
}
