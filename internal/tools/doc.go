// Package tools routes structured tool invocations from the voice agent to
// their handlers and folds every outcome into a uniform Result envelope.
//
// Four tools are registered by NewDispatcher:
//
//   - search_kb: FAQ lookup through a KnowledgeLookup
//   - propose_slot: first free appointment window from a SlotFinder
//   - book_calendar: idempotent booking through a Booker
//   - confirm_readback: records the details the caller confirmed
//
// Dispatch never returns an error and never panics. Failures are reported
// in the envelope as {"error": "...", "code": "<kind>"} where kind is one of
// the Kind constants, so the transport can relay the result unchanged.
package tools
