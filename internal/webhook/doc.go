// Package webhook receives signed call events from the voice agent platform.
//
// Every delivery is authenticated with Verify over the raw request body
// before any JSON is decoded. Authenticated events mutate the session store
// or, for tool calls, are handed to the tool dispatcher and answered with
// its envelope.
package webhook
