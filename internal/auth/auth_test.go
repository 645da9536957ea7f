package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/iliyamo/cactilog/internal/config"
)

func TestIdentityUser(t *testing.T) {
	email, blank := "a@b.c", "  "
	u := Identity{Provider: "google", Subject: "123", Email: &email, FirstName: &blank}.User()
	assert.Equal(t, "google:123", u.ID)
	assert.Equal(t, "google", u.AuthProvider)
	require.NotNil(t, u.Email)
	assert.Equal(t, "a@b.c", *u.Email)
	assert.Nil(t, u.FirstName)
	assert.Nil(t, u.LastName)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Config{Env: "prod", AuthProviders: []string{"local", "dev", "google"}, GoogleClientID: "id"}
	assert.Equal(t, []string{"google"}, FromConfig(cfg).Names(), "dev is ignored outside dev")

	cfg.Env = "dev"
	assert.Equal(t, []string{"dev", "google"}, FromConfig(cfg).Names())

	cfg.GoogleClientID = ""
	assert.Equal(t, []string{"dev"}, FromConfig(cfg).Names())
}

func TestDevProvider(t *testing.T) {
	d := NewDev("developer")
	u, err := url.Parse(d.AuthCodeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/dev/callback", u.Path)
	assert.Equal(t, "xyz", u.Query().Get("state"))

	id, err := d.Exchange(context.Background(), u.Query().Get("code"))
	require.NoError(t, err)
	assert.Equal(t, "dev:developer", id.UserID())

	_, err = d.Exchange(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrExchange)
}

func TestGoogleExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(googleUserInfo{Sub: "1093", Email: "gardener@example.com", GivenName: "Ana"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewGoogle("id", "secret", "http://localhost/cb")
	g.cfg.Endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthURL: srv.URL + "/auth"}
	g.userInfoURL = srv.URL + "/userinfo"

	assert.Contains(t, g.AuthCodeURL("st"), "state=st")

	id, err := g.Exchange(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "google:1093", id.UserID())
	assert.Equal(t, "gardener@example.com", *id.Email)

	_, err = g.Exchange(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrExchange)
}
