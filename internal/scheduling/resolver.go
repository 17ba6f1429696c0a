package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNoAvailability means the whole horizon was searched without a free
	// window. It is a business outcome and must not be retried as is.
	ErrNoAvailability = errors.New("no availability in the search horizon")

	// ErrInvalidDuration is returned for a negative appointment duration.
	ErrInvalidDuration = errors.New("appointment duration must be positive")

	// ErrBusyLookup wraps failures of the BusyIntervalSource.
	ErrBusyLookup = errors.New("busy interval lookup failed")
)

// DefaultDuration is used when the caller does not ask for a duration.
const DefaultDuration = 120 * time.Minute

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch at an edge do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// BusyIntervalSource reports occupied ranges on the calendar that overlap
// the given window.
type BusyIntervalSource interface {
	BusyIntervals(ctx context.Context, window Interval) ([]Interval, error)
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Resolver searches for the earliest free appointment window.
type Resolver struct {
	source          BusyIntervalSource
	hours           ServiceHours
	clock           Clock
	defaultDuration time.Duration
	logger          *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock injects the source of "now".
func WithClock(c Clock) Option {
	return func(r *Resolver) { r.clock = c }
}

// WithDefaultDuration overrides DefaultDuration.
func WithDefaultDuration(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.defaultDuration = d
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver. hours must have passed Validate.
func NewResolver(source BusyIntervalSource, hours ServiceHours, opts ...Option) *Resolver {
	r := &Resolver{
		source:          source,
		hours:           hours,
		clock:           ClockFunc(time.Now),
		defaultDuration: DefaultDuration,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hours returns the service hours the resolver searches within.
func (r *Resolver) Hours() ServiceHours {
	return r.hours
}

// Now returns the resolver's current instant in the service timezone.
func (r *Resolver) Now() time.Time {
	return r.clock.Now().In(r.hours.Location)
}

// Origin returns the first day of the search. A non-zero preferred date is
// used as is; otherwise it is the first open day after today.
func (r *Resolver) Origin(preferred time.Time) time.Time {
	if !preferred.IsZero() {
		return r.hours.startOfDay(preferred)
	}
	day := r.hours.addDays(r.hours.startOfDay(r.Now()), 1)
	for i := 0; i < 7 && r.hours.IsClosed(day.Weekday()); i++ {
		day = r.hours.addDays(day, 1)
	}
	return day
}

// FindSlot returns the earliest free window of the given duration, starting
// on the preferred date (zero means the next open day). A zero duration
// selects the default. Busy intervals are fetched once per open day.
func (r *Resolver) FindSlot(ctx context.Context, preferred time.Time, duration time.Duration) (Interval, error) {
	if duration == 0 {
		duration = r.defaultDuration
	}
	if duration < 0 {
		return Interval{}, ErrInvalidDuration
	}

	now := r.Now()
	origin := r.Origin(preferred)
	logger := r.logger.With("origin", origin.Format(DateLayout), "duration", duration)

	if duration > r.hours.Window() {
		logger.Debug("duration exceeds the daily opening window")
		return Interval{}, ErrNoAvailability
	}

	for offset := 0; offset < r.hours.horizon(); offset++ {
		day := r.hours.addDays(origin, offset)
		if r.hours.IsClosed(day.Weekday()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Interval{}, err
		}

		window := r.hours.DayWindow(day)
		busy, err := r.source.BusyIntervals(ctx, window)
		if err != nil {
			return Interval{}, fmt.Errorf("%w for %s: %w", ErrBusyLookup, day.Format(DateLayout), err)
		}

		if slot, ok := firstFree(window, busy, duration, now); ok {
			logger.Debug("slot found", "start", slot.Start, "busy_intervals", len(busy))
			return slot, nil
		}
		logger.Debug("day fully booked", "day", day.Format(DateLayout), "busy_intervals", len(busy))
	}

	return Interval{}, ErrNoAvailability
}

// firstFree steps through window in increments of duration and returns
// the first candidate that starts no earlier than now, ends by closing time
// and overlaps no busy range.
func firstFree(window Interval, busy []Interval, duration time.Duration, now time.Time) (Interval, bool) {
	for start := window.Start; ; start = start.Add(duration) {
		candidate := Interval{Start: start, End: start.Add(duration)}
		if candidate.End.After(window.End) {
			return Interval{}, false
		}
		if !candidate.Start.Before(now) && !overlapsAny(candidate, busy) {
			return candidate, true
		}
	}
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
