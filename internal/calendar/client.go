package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/voicedesk/internal/booking"
	"github.com/teemow/voicedesk/internal/instrumentation"
	"github.com/teemow/voicedesk/internal/scheduling"
)

// DefaultCalendarID is the authenticated user's primary calendar.
const DefaultCalendarID = "primary"

// Config configures a Client.
type Config struct {
	// CalendarID is the calendar to query and book into (default: primary).
	CalendarID string

	// ClientOptions are passed to calendar.NewService, usually an
	// authenticated HTTP client.
	ClientOptions []option.ClientOption

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Google Calendar service for one calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

var (
	_ scheduling.BusyIntervalSource = (*Client)(nil)
	_ booking.EventCreator          = (*Client)(nil)
)

// NewClient creates a Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	svc, err := calendar.NewService(ctx, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		svc:        svc,
		calendarID: cfg.CalendarID,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("component", "calendar", "calendar_id", cfg.CalendarID),
	}, nil
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// BusyIntervals returns the busy ranges on the calendar that overlap window.
func (c *Client) BusyIntervals(ctx context.Context, window scheduling.Interval) (busy []scheduling.Interval, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationFreeBusy)
	defer func() { done(err) }()

	query := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}
	if loc := window.Start.Location(); loc != time.UTC && loc != time.Local {
		query.TimeZone = loc.String()
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	cal, ok := result.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy response has no entry for calendar %q", c.calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy failed for calendar %q: %s", c.calendarID, cal.Errors[0].Reason)
	}

	busy = make([]scheduling.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", period.End, err)
		}
		busy = append(busy, scheduling.Interval{Start: start, End: end})
	}

	c.logger.Debug("freebusy query",
		slog.Time("time_min", window.Start),
		slog.Time("time_max", window.End),
		slog.Int("busy", len(busy)),
	)
	return busy, nil
}

// CreateEvent inserts event into the calendar and returns its HTML link.
func (c *Client) CreateEvent(ctx context.Context, event booking.Event) (link string, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationInsertEvent)
	defer func() { done(err) }()

	timeZone := event.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}

	created, err := c.svc.Events.Insert(c.calendarID, &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: timeZone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	c.logger.Info("calendar event created", slog.String("event_id", created.Id))
	return created.HtmlLink, nil
}

// observe starts the span for operation and returns a func that ends it and
// records the call metrics.
func (c *Client) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartCalendarSpan(ctx, operation,
		attribute.String(instrumentation.SpanAttrCalendarID, c.calendarID),
	)

	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
		c.metrics.RecordCalendarOperation(ctx, operation, status, time.Since(start))
	}
}
