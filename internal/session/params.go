package session

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// CookieName is shared by every service trusting the same store.
	CookieName = "sbqc.sid"

	// Collection holds the session records written by the login service.
	Collection = "sessions"

	// Lifetime matches the cookie maxAge agreed across services (24h).
	Lifetime = 24 * time.Hour

	prodDatabase = "sbqc"
	devDatabase  = "sbqc_dev"
)

// Params is the session configuration every trusting service must hold
// identically for shared logins to work. It is immutable once built and
// is wired into the host's session layer by the host, not by this
// package.
type Params struct {
	CookieName string
	Secret     string
	StoreURL   string
	Database   string
	Collection string
	Lifetime   time.Duration
	HTTPOnly   bool
	SameSite   http.SameSite
	Secure     bool
}

// NewParams validates and assembles the shared session parameters.
// The production flag selects between the two fixed logical databases;
// it also decides the secure cookie flag, since production is the only
// HTTPS deployment.
func NewParams(secret, storeURL string, production bool) (Params, error) {
	if secret == "" {
		return Params{}, fmt.Errorf("session: secret must not be empty")
	}
	if storeURL == "" {
		return Params{}, fmt.Errorf("session: store URL must not be empty")
	}

	database := devDatabase
	if production {
		database = prodDatabase
	}

	return Params{
		CookieName: CookieName,
		Secret:     secret,
		StoreURL:   storeURL,
		Database:   database,
		Collection: Collection,
		Lifetime:   Lifetime,
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
		Secure:     production,
	}, nil
}
