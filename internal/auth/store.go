package auth

import (
	"context"
	"errors"
)

var (
	// ErrMalformedID reports a session user id that cannot be a store
	// primary key. Stale cookies and tampering both end up here.
	ErrMalformedID = errors.New("auth: malformed user id")

	// ErrNotFound reports that no user record matches the id.
	ErrNotFound = errors.New("auth: user not found")
)

// UserStore looks up user records in the shared store.
// Implementations must return ErrMalformedID and ErrNotFound for those
// outcomes so callers can tell them from transport errors; the
// middleware collapses all three to "no identity" but logs them apart.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
}
