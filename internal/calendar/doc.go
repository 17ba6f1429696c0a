// Package calendar adapts the Google Calendar API to the scheduling and
// booking interfaces.
//
// Client answers busy-interval queries with a freebusy request against one
// calendar and creates appointment events with events.insert. Every call is
// traced as "calendar.<operation>" and counted in the calendar API metrics.
//
// Example usage:
//
//	httpClient, err := creds.HTTPClient(ctx)
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(ctx, calendar.Config{
//	    CalendarID:    "primary",
//	    ClientOptions: []option.ClientOption{option.WithHTTPClient(httpClient)},
//	})
//	if err != nil {
//	    return err
//	}
//	busy, err := client.BusyIntervals(ctx, window)
package calendar
