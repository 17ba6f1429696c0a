// Package session holds per-call conversational state in memory.
//
// A Store owns one entry per active call, keyed by the platform's call id.
// Entries accumulate the transcript, the customer fields observed in tool
// calls, and a booking ledger that holds at most one booking per distinct
// (start, end) pair. Distinct calls lock independently; mutations on the
// same call are serialized.
//
// Operations on unknown call ids are silent no-ops, since webhook delivery
// order is not guaranteed. Sessions older than the store TTL are removed by
// SweepExpired, which a Sweeper runs on a fixed interval.
package session
