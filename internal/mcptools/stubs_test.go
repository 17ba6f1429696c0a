package mcptools

import (
	"context"
	"time"

	"github.com/teemow/voicedesk/internal/booking"
	"github.com/teemow/voicedesk/internal/knowledge"
	"github.com/teemow/voicedesk/internal/scheduling"
)

type noSlots struct{}

func (noSlots) FindSlot(context.Context, time.Time, time.Duration) (scheduling.Interval, error) {
	return scheduling.Interval{}, scheduling.ErrNoAvailability
}

type noBookings struct{}

func (noBookings) Book(context.Context, string, booking.Request) (string, error) {
	return "", booking.ErrBookingFailed
}

type noKnowledge struct{}

func (noKnowledge) Search(context.Context, string) ([]knowledge.Answer, error) {
	return nil, nil
}
