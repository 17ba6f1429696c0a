// Package booking turns a confirmed time window into a calendar event.
//
// A Recorder guarantees at most one external event per (start, end) pair per
// call. It consults the call's booking ledger before calling the calendar,
// collapses concurrent identical requests with singleflight, and records the
// booking only after the calendar accepted it.
package booking
