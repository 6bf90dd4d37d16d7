package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"perfumeshop/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestNewGoogleProvider_Disabled(t *testing.T) {
	assert.Nil(t, NewGoogleProvider(config.GoogleConfig{}))
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(config.GoogleConfig{ClientID: "cid", ClientSecret: "sec", RedirectURL: "http://localhost/cb"})
	require.NotNil(t, p)

	u, err := url.Parse(p.AuthCodeURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Contains(t, u.Query().Get("scope"), "email")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"sub":"g-1","email":"a@example.com","email_verified":true,"name":"A"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "sec",
			Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		},
		userInfoURL: srv.URL + "/userinfo",
	}

	gu, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "g-1", gu.Sub)
	assert.Equal(t, "a@example.com", gu.Email)
	assert.True(t, gu.EmailVerified)
}
