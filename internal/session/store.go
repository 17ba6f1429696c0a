package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/voicedesk/internal/logging"
)

// DefaultTTL is how long a session may live without a call-ended event.
const DefaultTTL = time.Hour

// Fields are the customer details collected during a call.
type Fields struct {
	Name    string
	Phone   string
	Address string
	Issue   string
}

// merge overwrites fields with the non-empty values of other.
func (f *Fields) merge(other Fields) {
	if other.Name != "" {
		f.Name = other.Name
	}
	if other.Phone != "" {
		f.Phone = other.Phone
	}
	if other.Address != "" {
		f.Address = other.Address
	}
	if other.Issue != "" {
		f.Issue = other.Issue
	}
}

// Booking is an appointment recorded for a call.
type Booking struct {
	Start time.Time
	End   time.Time
	Link  string
}

// Session is a point-in-time copy of a call's state.
type Session struct {
	CallID     string
	Transcript string
	Fields     Fields
	Bookings   []Booking
	CreatedAt  time.Time
}

// Summary is emitted when a session is closed.
type Summary struct {
	CallID           string
	Reason           string
	Duration         time.Duration
	Bookings         int
	TranscriptLength int
}

// Close reasons.
const (
	ReasonEnded   = "ended"
	ReasonExpired = "expired"
)

// Gauge tracks the number of live sessions.
type Gauge interface {
	IncrementActiveSessions(ctx context.Context)
	DecrementActiveSessions(ctx context.Context)
}

type ledgerKey struct {
	start int64
	end   int64
}

func keyFor(start, end time.Time) ledgerKey {
	return ledgerKey{start: start.UnixNano(), end: end.UnixNano()}
}

type entry struct {
	mu       sync.Mutex
	session  Session
	bookings map[ledgerKey]int // index into session.Bookings
}

// Store is a concurrency-safe in-memory session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	gauge  Gauge
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the session lifetime used by SweepExpired.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger for session lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGauge reports the live session count, usually to instrumentation.Metrics.
func WithGauge(g Gauge) Option {
	return func(s *Store) { s.gauge = g }
}

// WithClock overrides time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Init starts a fresh session for callID, replacing any existing one.
func (s *Store) Init(callID string) {
	e := &entry{
		session: Session{
			CallID:    callID,
			CreatedAt: s.now(),
		},
		bookings: make(map[ledgerKey]int),
	}

	s.mu.Lock()
	_, replaced := s.sessions[callID]
	s.sessions[callID] = e
	s.mu.Unlock()

	if !replaced && s.gauge != nil {
		s.gauge.IncrementActiveSessions(context.Background())
	}
	s.logger.Info("call session started", logging.CallID(callID), slog.Bool("replaced", replaced))
}

// Ensure creates a session for callID if none exists and reports whether
// it did.
func (s *Store) Ensure(callID string) bool {
	s.mu.Lock()
	if _, ok := s.sessions[callID]; ok {
		s.mu.Unlock()
		return false
	}
	s.sessions[callID] = &entry{
		session:  Session{CallID: callID, CreatedAt: s.now()},
		bookings: make(map[ledgerKey]int),
	}
	s.mu.Unlock()

	if s.gauge != nil {
		s.gauge.IncrementActiveSessions(context.Background())
	}
	s.logger.Info("call session created on demand", logging.CallID(callID))
	return true
}

func (s *Store) lookup(callID string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[callID]
}

// Get returns a copy of the session for callID.
func (s *Store) Get(callID string) (Session, bool) {
	e := s.lookup(callID)
	if e == nil {
		return Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := e.session
	snapshot.Bookings = append([]Booking(nil), e.session.Bookings...)
	return snapshot, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AppendTranscript appends delta to the call transcript.
func (s *Store) AppendTranscript(callID, delta string) {
	e := s.lookup(callID)
	if e == nil {
		s.logger.Debug("transcript delta for unknown call", logging.CallID(callID))
		return
	}

	e.mu.Lock()
	e.session.Transcript += delta
	e.mu.Unlock()
}

// UpdateFields merges the non-empty customer fields into the session.
func (s *Store) UpdateFields(callID string, fields Fields) {
	e := s.lookup(callID)
	if e == nil {
		return
	}

	e.mu.Lock()
	e.session.Fields.merge(fields)
	e.mu.Unlock()
}

// RecordBooking adds (start, end) to the call's ledger unless the pair is
// already present, and reports whether a new entry was added. An existing
// entry without a link takes the given one.
func (s *Store) RecordBooking(callID string, start, end time.Time, link string) bool {
	e := s.lookup(callID)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := keyFor(start, end)
	if idx, ok := e.bookings[key]; ok {
		if e.session.Bookings[idx].Link == "" && link != "" {
			e.session.Bookings[idx].Link = link
		}
		return false
	}

	e.session.Bookings = append(e.session.Bookings, Booking{Start: start, End: end, Link: link})
	e.bookings[key] = len(e.session.Bookings) - 1
	return true
}

// FindBooking returns the link recorded for (start, end) on the call.
func (s *Store) FindBooking(callID string, start, end time.Time) (string, bool) {
	e := s.lookup(callID)
	if e == nil {
		return "", false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.bookings[keyFor(start, end)]
	if !ok {
		return "", false
	}
	return e.session.Bookings[idx].Link, true
}

// Close removes the session and logs its summary.
func (s *Store) Close(callID string) (Summary, bool) {
	s.mu.Lock()
	e, ok := s.sessions[callID]
	if ok {
		delete(s.sessions, callID)
	}
	s.mu.Unlock()

	if !ok {
		return Summary{}, false
	}
	return s.finish(e, ReasonEnded), true
}

// SweepExpired closes every session created at least one TTL before now
// and returns how many were removed.
func (s *Store) SweepExpired(now time.Time) int {
	var expired []*entry

	s.mu.Lock()
	for callID, e := range s.sessions {
		// CreatedAt is written once in Init, before the entry is published.
		if !e.session.CreatedAt.Add(s.ttl).After(now) {
			expired = append(expired, e)
			delete(s.sessions, callID)
		}
	}
	s.mu.Unlock()

	for _, e := range expired {
		s.finish(e, ReasonExpired)
	}
	if len(expired) > 0 {
		s.logger.Info("swept expired call sessions", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// finish builds and logs the summary of an entry already removed from the map.
func (s *Store) finish(e *entry, reason string) Summary {
	e.mu.Lock()
	summary := Summary{
		CallID:           e.session.CallID,
		Reason:           reason,
		Duration:         s.now().Sub(e.session.CreatedAt),
		Bookings:         len(e.session.Bookings),
		TranscriptLength: len(e.session.Transcript),
	}
	e.mu.Unlock()

	if s.gauge != nil {
		s.gauge.DecrementActiveSessions(context.Background())
	}
	s.logger.Info("call session closed",
		logging.CallID(summary.CallID),
		slog.String("reason", summary.Reason),
		logging.Duration(summary.Duration),
		slog.Int("bookings", summary.Bookings),
		slog.Int("transcript_length", summary.TranscriptLength),
	)
	return summary
}
