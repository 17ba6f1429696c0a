package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/teemow/voicedesk/internal/instrumentation"
	"github.com/teemow/voicedesk/internal/logging"
)

var (
	// ErrBookingFailed wraps any failure of the calendar to create the event.
	ErrBookingFailed = errors.New("failed to create calendar event")

	// ErrInvalidRequest is returned for a request that can never be booked.
	ErrInvalidRequest = errors.New("invalid booking request")
)

// FallbackLink is returned when the calendar accepts an event without
// supplying a shareable link.
const FallbackLink = "Event created successfully"

// DefaultSummaryPrefix starts every event title.
const DefaultSummaryPrefix = "HVAC Service"

// Request is a confirmed appointment with the customer's details.
type Request struct {
	Name    string
	Phone   string
	Address string
	Issue   string
	Start   time.Time
	End     time.Time
}

// Event is the payload submitted to the calendar.
type Event struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// EventCreator creates a calendar event and returns its shareable link.
type EventCreator interface {
	CreateEvent(ctx context.Context, event Event) (string, error)
}

// Ledger is the per-call record of bookings already made.
type Ledger interface {
	FindBooking(callID string, start, end time.Time) (string, bool)
	RecordBooking(callID string, start, end time.Time, link string) bool
}

// Metrics receives one result per booking attempt.
type Metrics interface {
	RecordBooking(ctx context.Context, result string)
}

// Recorder creates calendar events idempotently.
type Recorder struct {
	creator       EventCreator
	ledger        Ledger
	location      *time.Location
	summaryPrefix string
	metrics       Metrics
	logger        *slog.Logger

	group singleflight.Group
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSummaryPrefix sets the event title prefix.
func WithSummaryPrefix(prefix string) Option {
	return func(r *Recorder) {
		if prefix != "" {
			r.summaryPrefix = prefix
		}
	}
}

// WithMetrics sets the booking result recorder.
func WithMetrics(m Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates a Recorder that books into creator, remembers bookings
// in ledger, and stamps events with the service timezone loc.
func NewRecorder(creator EventCreator, ledger Ledger, loc *time.Location, opts ...Option) *Recorder {
	if loc == nil {
		loc = time.UTC
	}
	r := &Recorder{
		creator:       creator,
		ledger:        ledger,
		location:      loc,
		summaryPrefix: DefaultSummaryPrefix,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Book creates the event for req on behalf of callID and returns its link.
// A pair already in the ledger returns the stored link without contacting
// the calendar. On failure nothing is recorded.
func (r *Recorder) Book(ctx context.Context, callID string, req Request) (string, error) {
	if !req.End.After(req.Start) {
		return "", fmt.Errorf("%w: end %s is not after start %s", ErrInvalidRequest,
			req.End.Format(time.RFC3339), req.Start.Format(time.RFC3339))
	}

	key := flightKey(callID, req.Start, req.End)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.book(ctx, callID, req)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Recorder) book(ctx context.Context, callID string, req Request) (string, error) {
	logger := logging.WithCall(r.logger, callID).With(
		slog.Time("start", req.Start),
		slog.Time("end", req.End),
	)

	if link, ok := r.ledger.FindBooking(callID, req.Start, req.End); ok {
		r.record(ctx, instrumentation.BookingDeduplicated)
		logger.Info("booking already recorded, reusing link")
		return link, nil
	}

	link, err := r.creator.CreateEvent(ctx, r.Event(req))
	if err != nil {
		r.record(ctx, instrumentation.BookingFailed)
		logger.Warn("calendar event creation failed", logging.Err(err))
		return "", fmt.Errorf("%w: %w", ErrBookingFailed, err)
	}
	if link == "" {
		link = FallbackLink
	}

	r.ledger.RecordBooking(callID, req.Start, req.End, link)
	r.record(ctx, instrumentation.BookingCreated)
	logger.Info("booking created", logging.Phone(req.Phone))
	return link, nil
}

// Event builds the calendar payload for req.
func (r *Recorder) Event(req Request) Event {
	return Event{
		Summary: r.summaryPrefix + " - " + req.Name,
		Description: strings.Join([]string{
			"Customer: " + req.Name,
			"Phone: " + req.Phone,
			"Address: " + req.Address,
			"Issue: " + req.Issue,
		}, "\n"),
		Location: req.Address,
		Start:    req.Start.In(r.location),
		End:      req.End.In(r.location),
		TimeZone: r.location.String(),
	}
}

func (r *Recorder) record(ctx context.Context, result string) {
	if r.metrics != nil {
		r.metrics.RecordBooking(ctx, result)
	}
}

func flightKey(callID string, start, end time.Time) string {
	return callID + "|" + strconv.FormatInt(start.UnixNano(), 10) + "|" + strconv.FormatInt(end.UnixNano(), 10)
}
