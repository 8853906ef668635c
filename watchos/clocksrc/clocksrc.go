// Package clocksrc turns the platform time reference into calendar readings.
package clocksrc

import (
	"errors"
	"fmt"
	"time"

	"watch/hal"
)

// ErrNotSynced is returned while the platform clock holds no valid time.
var ErrNotSynced = errors.New("clock not synchronized")

// Calendar is a broken-down local time.
type Calendar struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// FromTime converts t, keeping its location.
func FromTime(t time.Time) Calendar {
	return Calendar{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Date renders YYYY-MM-DD.
func (c Calendar) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
}

// Clock renders HH:MM:SS.
func (c Calendar) Clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// String renders the long form, e.g. "Mon Jan  2 15:04:05 2006".
func (c Calendar) String() string {
	t := time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
	return t.Format(time.ANSIC)
}

// Source reads calendar time from a hal.TimeRef.
type Source struct {
	ref hal.TimeRef
}

func New(ref hal.TimeRef) *Source {
	return &Source{ref: ref}
}

// Now returns the current local calendar time.
func (s *Source) Now() (Calendar, error) {
	t, err := s.ref.LocalTime()
	if err != nil {
		if errors.Is(err, hal.ErrNotSynced) {
			return Calendar{}, ErrNotSynced
		}
		return Calendar{}, fmt.Errorf("read clock: %w", err)
	}
	return FromTime(t), nil
}

// Synced reports whether Now would currently succeed.
func (s *Source) Synced() bool {
	_, err := s.ref.LocalTime()
	return err == nil
}
