// Package google provides OAuth2 credentials for the Google Calendar API.
//
// The service runs unattended, so it authenticates with a long-lived refresh
// token obtained once out of band. Credentials turns that refresh token into
// an oauth2.TokenSource and an authenticated *http.Client for the calendar
// client.
package google
