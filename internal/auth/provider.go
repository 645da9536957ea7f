// Package auth resolves external identities.  Every login path, whatever
// the provider, ends in an Identity that is upserted as a user and then
// represented by the same access token.
package auth

import (
	"context"
	"errors"
	"sort"

	"github.com/iliyamo/cactilog/internal/config"
	"github.com/iliyamo/cactilog/internal/model"
)

// ErrExchange is returned when a provider rejects an authorization code.
var ErrExchange = errors.New("authorization code exchange failed")

// Identity is a user as reported by an identity provider.
type Identity struct {
	Provider        string
	Subject         string
	Email           *string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
}

// UserID is the provider-prefixed id stored in users.id.
func (id Identity) UserID() string { return id.Provider + ":" + id.Subject }

// User converts the identity to the row upserted on login.
func (id Identity) User() *model.User {
	return &model.User{
		ID:              id.UserID(),
		Email:           model.NullIfBlank(id.Email),
		FirstName:       model.NullIfBlank(id.FirstName),
		LastName:        model.NullIfBlank(id.LastName),
		ProfileImageURL: model.NullIfBlank(id.ProfileImageURL),
		AuthProvider:    id.Provider,
	}
}

// Provider is a redirect based login flow.
type Provider interface {
	Name() string
	// AuthCodeURL is where the browser is sent to log in.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for the user's identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}

// Registry holds the enabled redirect providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.providers[p.Name()] = p
	}
	return r
}

// FromConfig builds the registry from AUTH_PROVIDERS.  The dev provider
// is only honoured in a development environment and google only when it
// has client credentials.
func FromConfig(cfg config.Config) *Registry {
	var ps []Provider
	if cfg.ProviderEnabled("google") && cfg.GoogleClientID != "" {
		ps = append(ps, NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL))
	}
	if cfg.ProviderEnabled("dev") && cfg.IsDev() {
		ps = append(ps, NewDev(cfg.DevUserSubject))
	}
	return NewRegistry(ps...)
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names lists the enabled providers in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
