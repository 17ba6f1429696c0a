package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for preferred dates.
const DateLayout = "2006-01-02"

// ClockTime is a wall-clock time of day in the service timezone.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM" in 24-hour form.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// ParseWeekday parses an English weekday name such as "sunday" or "Sun".
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}

// ServiceHours describes when appointments can be made.
type ServiceHours struct {
	// Location is the fixed service timezone.
	Location *time.Location

	Open  ClockTime
	Close ClockTime

	// ClosedDays are weekdays with no appointments.
	ClosedDays []time.Weekday

	// HorizonDays is the number of consecutive days searched from the origin.
	HorizonDays int
}

// DefaultHorizonDays is the search horizon used when ServiceHours leaves it unset.
const DefaultHorizonDays = 7

// Validate reports configuration that would make every search fail.
func (h ServiceHours) Validate() error {
	if h.Location == nil {
		return errors.New("service hours: timezone is required")
	}
	if h.Close.offset() <= h.Open.offset() {
		return fmt.Errorf("service hours: close %s must be after open %s", h.Close, h.Open)
	}
	if h.Open.offset() < 0 || h.Close.offset() > 24*time.Hour {
		return fmt.Errorf("service hours: %s-%s is outside a single day", h.Open, h.Close)
	}
	if h.HorizonDays < 0 {
		return fmt.Errorf("service hours: negative horizon %d", h.HorizonDays)
	}
	closed := make(map[time.Weekday]bool, len(h.ClosedDays))
	for _, d := range h.ClosedDays {
		closed[d] = true
	}
	if len(closed) >= 7 {
		return errors.New("service hours: every weekday is closed")
	}
	return nil
}

// Window returns the length of the daily opening window.
func (h ServiceHours) Window() time.Duration {
	return h.Close.offset() - h.Open.offset()
}

func (h ServiceHours) horizon() int {
	if h.HorizonDays == 0 {
		return DefaultHorizonDays
	}
	return h.HorizonDays
}

// IsClosed reports whether no appointments are made on the given weekday.
func (h ServiceHours) IsClosed(d time.Weekday) bool {
	for _, c := range h.ClosedDays {
		if c == d {
			return true
		}
	}
	return false
}

// DayWindow returns the opening hours on the calendar day of t, in the
// service timezone.
func (h ServiceHours) DayWindow(t time.Time) Interval {
	y, m, d := t.In(h.Location).Date()
	return Interval{
		Start: time.Date(y, m, d, h.Open.Hour, h.Open.Minute, 0, 0, h.Location),
		End:   time.Date(y, m, d, h.Close.Hour, h.Close.Minute, 0, 0, h.Location),
	}
}

// startOfDay returns midnight of t's calendar day in the service timezone.
func (h ServiceHours) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(h.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.Location)
}

// addDays moves by calendar days, so DST changes do not shift the date.
func (h ServiceHours) addDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, h.Location)
}
