package google

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// ErrMissingCredentials is returned when a required OAuth field is empty.
var ErrMissingCredentials = errors.New("google credentials incomplete")

// Scopes are the OAuth scopes the service needs. Free/busy queries and event
// inserts are both covered by the calendar scope.
var Scopes = []string{calendar.CalendarScope}

// Credentials identify the OAuth client and the calendar owner's grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	// TokenURL overrides the Google token endpoint. Empty means google.Endpoint.
	TokenURL string
}

// Validate reports which required fields are missing.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "client id")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "client secret")
	}
	if strings.TrimSpace(c.RefreshToken) == "" {
		missing = append(missing, "refresh token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// OAuthConfig returns the OAuth2 configuration for the calendar scope.
func (c Credentials) OAuthConfig() *oauth2.Config {
	endpoint := google.Endpoint
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}
}

// TokenSource returns a token source that refreshes access tokens from the
// stored refresh token. The first call to Token always hits the token endpoint.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.OAuthConfig().TokenSource(ctx, &oauth2.Token{
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}), nil
}

// HTTPClient returns an HTTP client configured with OAuth2 authentication.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func (c Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := c.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ForceAttemptHTTP2 = false
	base.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, ts),
			Base:   base,
		},
		Timeout: 30 * time.Second,
	}, nil
}
