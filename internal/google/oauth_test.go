package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{"complete", Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh"}, false},
		{"missing client id", Credentials{ClientSecret: "secret", RefreshToken: "refresh"}, true},
		{"missing secret", Credentials{ClientID: "id", RefreshToken: "refresh"}, true},
		{"blank refresh token", Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "  "}, true},
		{"empty", Credentials{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMissingCredentials))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentials_Validate_ListsMissingFields(t *testing.T) {
	err := Credentials{ClientID: "id"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client secret, refresh token")
}

func TestCredentials_OAuthConfig(t *testing.T) {
	conf := Credentials{ClientID: "id", ClientSecret: "secret"}.OAuthConfig()
	assert.Equal(t, "https://oauth2.googleapis.com/token", conf.Endpoint.TokenURL)
	assert.Equal(t, Scopes, conf.Scopes)

	conf = Credentials{TokenURL: "http://127.0.0.1/token"}.OAuthConfig()
	assert.Equal(t, "http://127.0.0.1/token", conf.Endpoint.TokenURL)
}

func TestCredentials_HTTPClient(t *testing.T) {
	var refreshes atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		refreshes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer apiServer.Close()

	creds := Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		TokenURL:     tokenServer.URL,
	}

	client, err := creds.HTTPClient(context.Background())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		resp, err := client.Get(apiServer.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}
	assert.Equal(t, int32(1), refreshes.Load(), "access token should be reused until expiry")
}

func TestCredentials_HTTPClient_Invalid(t *testing.T) {
	_, err := Credentials{}.HTTPClient(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
