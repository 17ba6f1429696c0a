package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/teemow/voicedesk/internal/booking"
	"github.com/teemow/voicedesk/internal/knowledge"
	"github.com/teemow/voicedesk/internal/scheduling"
	"github.com/teemow/voicedesk/internal/session"
)

// Tool names as declared to the voice agent.
const (
	SearchKB        = "search_kb"
	ProposeSlot     = "propose_slot"
	BookCalendar    = "book_calendar"
	ConfirmReadback = "confirm_readback"
)

// MaxDuration is the longest appointment propose_slot accepts by default.
const MaxDuration = 480 * time.Minute

// DisplayLayout renders a proposed start for reading aloud.
const DisplayLayout = "Monday, January 2 at 3:04 PM"

// SlotFinder finds a free appointment window. preferred is zero when the
// caller did not ask for a date.
type SlotFinder interface {
	FindSlot(ctx context.Context, preferred time.Time, duration time.Duration) (scheduling.Interval, error)
}

// Booker books a confirmed appointment and returns its link.
type Booker interface {
	Book(ctx context.Context, callID string, req booking.Request) (string, error)
}

// KnowledgeLookup answers free-text customer questions.
type KnowledgeLookup interface {
	Search(ctx context.Context, query string) ([]knowledge.Answer, error)
}

// FieldRecorder keeps the customer details observed during a call.
type FieldRecorder interface {
	UpdateFields(callID string, fields session.Fields)
}

type discardFields struct{}

func (discardFields) UpdateFields(string, session.Fields) {}

// SearchResult is the search_kb payload.
type SearchResult struct {
	Answers []knowledge.Answer `json:"answers"`
}

// SlotResult is the propose_slot payload.
type SlotResult struct {
	StartISO string `json:"startISO"`
	EndISO   string `json:"endISO"`
	Display  string `json:"display"`
}

// BookResult is the book_calendar payload.
type BookResult struct {
	Status string `json:"status"`
	Link   string `json:"link"`
}

// ConfirmResult is the confirm_readback payload.
type ConfirmResult struct {
	OK bool `json:"ok"`
}

func (d *Dispatcher) searchKB(ctx context.Context, _ string, args Args) (any, error) {
	query, err := args.String("query")
	if err != nil {
		return nil, err
	}
	answers, err := d.knowledge.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKnowledgeLookup, err)
	}
	if answers == nil {
		answers = []knowledge.Answer{}
	}
	return SearchResult{Answers: answers}, nil
}

func (d *Dispatcher) proposeSlot(ctx context.Context, _ string, args Args) (any, error) {
	date, err := args.OptionalString("date")
	if err != nil {
		return nil, err
	}
	var preferred time.Time
	if date != "" {
		preferred, err = time.ParseInLocation(scheduling.DateLayout, date, d.location)
		if err != nil {
			return nil, invalid("date", "must be a date in YYYY-MM-DD format")
		}
		now := d.clock.Now().In(d.location)
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.location)
		if preferred.Before(today) {
			return nil, invalid("date", "%s is in the past", date)
		}
	}

	duration, err := d.duration(args)
	if err != nil {
		return nil, err
	}

	slot, err := d.slots.FindSlot(ctx, preferred, duration)
	if err != nil {
		return nil, err
	}
	start, end := slot.Start.In(d.location), slot.End.In(d.location)
	return SlotResult{
		StartISO: start.Format(time.RFC3339),
		EndISO:   end.Format(time.RFC3339),
		Display:  start.Format(DisplayLayout),
	}, nil
}

// duration reads durationMins. Zero means the resolver default.
func (d *Dispatcher) duration(args Args) (time.Duration, error) {
	mins, ok, err := args.OptionalNumber("durationMins")
	if err != nil || !ok {
		return 0, err
	}
	if mins <= 0 {
		return 0, invalid("durationMins", "must be positive")
	}
	if mins != math.Trunc(mins) {
		return 0, invalid("durationMins", "must be a whole number of minutes")
	}
	if mins > d.maxDuration.Minutes() {
		return 0, invalid("durationMins", "must be at most %d", int(d.maxDuration/time.Minute))
	}
	return time.Duration(mins) * time.Minute, nil
}

func (d *Dispatcher) bookCalendar(ctx context.Context, callID string, args Args) (any, error) {
	req, err := bookingRequest(args)
	if err != nil {
		return nil, err
	}
	d.sessions.UpdateFields(callID, fieldsOf(req))

	link, err := d.bookings.Book(ctx, callID, req)
	if err != nil {
		return nil, err
	}
	return BookResult{Status: "booked", Link: link}, nil
}

func (d *Dispatcher) confirmReadback(_ context.Context, callID string, args Args) (any, error) {
	details, err := args.Object("details")
	if err != nil {
		return nil, err
	}
	req, err := bookingRequest(details)
	if err != nil {
		return nil, nested("details", err)
	}
	d.sessions.UpdateFields(callID, fieldsOf(req))
	return ConfirmResult{OK: true}, nil
}

// bookingRequest validates the six booking fields shared by book_calendar
// and confirm_readback.
func bookingRequest(args Args) (booking.Request, error) {
	var (
		req booking.Request
		err error
	)
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"name", &req.Name},
		{"phone", &req.Phone},
		{"address", &req.Address},
		{"issue", &req.Issue},
	} {
		if *f.dst, err = args.String(f.name); err != nil {
			return booking.Request{}, err
		}
	}
	if req.Start, err = args.Time("startISO"); err != nil {
		return booking.Request{}, err
	}
	if req.End, err = args.Time("endISO"); err != nil {
		return booking.Request{}, err
	}
	if !req.End.After(req.Start) {
		return booking.Request{}, invalid("endISO", "must be after startISO")
	}
	return req, nil
}

func fieldsOf(req booking.Request) session.Fields {
	return session.Fields{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Issue:   req.Issue,
	}
}

// nested qualifies a validation error on a field of an object argument.
func nested(parent string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Field: parent + "." + verr.Field, Reason: verr.Reason}
	}
	return err
}
