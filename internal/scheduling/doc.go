// Package scheduling finds free appointment windows on the service calendar.
//
// A Resolver walks a bounded horizon of business days. For each open day it
// asks a BusyIntervalSource for the occupied ranges inside the opening hours
// and steps through back-to-back candidates of the requested duration,
// returning the first one that fits before closing and overlaps nothing.
//
// All comparisons use absolute instants. The service timezone and the
// current instant are injected through ServiceHours and Clock so that
// searches are deterministic under test.
package scheduling
