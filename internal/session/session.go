package session

import (
	"context"
)

// Session is the request-scoped view of a shared session record.
// It intentionally stores only identity pointers, not auth state.
type Session struct {
	ID       string // unique session identifier (cookie value)
	UserID   string // references the shared users collection
	ReturnTo string // path to resume after an interactive login
}

// Store defines how shared session records are read and updated.
// Records are created and destroyed by the external login service;
// implementations here only load them and persist the ReturnTo slot.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// unexported, collision-proof context key
type sessionContextKeyType struct{}

var sessionKey = sessionContextKeyType{}

// FromContext extracts the request session from context. A false
// result means the session middleware was never applied.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// NewContext attaches a session to the context.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
