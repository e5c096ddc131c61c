package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/WindriderQc/nodeTools/internal/auth"
	"github.com/WindriderQc/nodeTools/internal/session"
)

// unexported, collision-proof context key
type userContextKeyType struct{}

var userKey = userContextKeyType{}

// CurrentUser extracts the resolved identity from context.
// A false result signals an anonymous caller.
func CurrentUser(ctx context.Context) (*auth.User, bool) {
	u, ok := ctx.Value(userKey).(*auth.User)
	return u, ok
}

// DefaultLoginURL is the login entry point of the service that issues
// the shared sessions. It lives outside every individual app.
const DefaultLoginURL = "https://sbqc.herokuapp.com/login"

// StoreAccessor obtains a user store for a request. It decouples the
// gates from how the host manages its store connection; returning nil
// signals that no usable handle is available right now.
type StoreAccessor func(c *gin.Context) auth.UserStore

// Config wires the auth middleware. It is immutable after
// NewAuthMiddleware; every gate closes over it rather than reading
// ambient state.
type Config struct {
	// Store is required.
	Store StoreAccessor

	// Sessions persists the return path before an interactive login
	// redirect. Optional; without it the path survives the request only.
	Sessions session.Store

	// LoginURL overrides DefaultLoginURL.
	LoginURL string

	// Logf receives advisory log lines. Optional, defaults to a no-op;
	// it never affects control flow.
	Logf func(msg string, fields map[string]any)
}

type AuthMiddleware struct {
	cfg Config
}

func NewAuthMiddleware(cfg Config) (*AuthMiddleware, error) {
	if cfg.Store == nil {
		return nil, errors.New("middleware: store accessor is required")
	}
	if cfg.LoginURL == "" {
		cfg.LoginURL = DefaultLoginURL
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, map[string]any) {}
	}
	return &AuthMiddleware{cfg: cfg}, nil
}

// resolve turns the request session into an identity snapshot published
// on the request context. It never rejects: every failure collapses to
// an anonymous request, so a broken store degrades logins instead of
// breaking pages. Safe to call more than once per request.
func (a *AuthMiddleware) resolve(c *gin.Context) {
	path := c.Request.URL.Path

	sess, ok := session.FromContext(c.Request.Context())
	if !ok {
		a.cfg.Logf("identity: no session on request", map[string]any{
			"path": path,
		})
		return
	}
	if sess.UserID == "" {
		a.cfg.Logf("identity: anonymous session", map[string]any{
			"path": path,
		})
		return
	}

	store := a.cfg.Store(c)
	if store == nil {
		a.cfg.Logf("identity: store unavailable", map[string]any{
			"path": path,
		})
		return
	}

	user, err := store.FindByID(c.Request.Context(), sess.UserID)
	switch {
	case errors.Is(err, auth.ErrMalformedID):
		a.cfg.Logf("identity: malformed user id", map[string]any{
			"user_id": sess.UserID,
		})
		return
	case errors.Is(err, auth.ErrNotFound):
		a.cfg.Logf("identity: user not found", map[string]any{
			"user_id": sess.UserID,
		})
		return
	case err != nil:
		a.cfg.Logf("identity: lookup failed", map[string]any{
			"user_id": sess.UserID,
			"error":   err.Error(),
		})
		return
	}

	ctx := context.WithValue(c.Request.Context(), userKey, user)
	c.Request = c.Request.WithContext(ctx)

	a.cfg.Logf("identity: resolved", map[string]any{
		"user_id": user.ID,
	})
}

// AttachUser publishes the identity snapshot, if any, and always
// continues. Handlers that serve both known and anonymous callers use
// it directly.
func (a *AuthMiddleware) AttachUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.resolve(c)
		c.Next()
	}
}

// OptionalAuth is AttachUser under the name routes read best with.
func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return a.AttachUser()
}

// RequireAuth rejects requests that cannot be resolved to a user.
// A session whose user record is gone never authenticates, so the
// snapshot is resolved before the gate decides.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := session.FromContext(c.Request.Context())
		if !ok {
			// session middleware missing: a deployment defect, but the
			// caller sees a normal unauthenticated response
			a.cfg.Logf("auth: session layer missing", map[string]any{
				"path": c.Request.URL.Path,
			})
			a.unauthorized(c)
			return
		}

		if sess.UserID == "" {
			a.cfg.Logf("auth: unauthenticated visit", map[string]any{
				"path": c.Request.URL.Path,
			})
			a.unauthorized(c)
			return
		}

		a.resolve(c)
		if _, ok := CurrentUser(c.Request.Context()); !ok {
			a.cfg.Logf("auth: session user unresolvable", map[string]any{
				"path":    c.Request.URL.Path,
				"user_id": sess.UserID,
			})
			a.unauthorized(c)
			return
		}

		c.Next()
	}
}

// RequireAdmin rejects callers whose resolved identity lacks the admin
// flag. Compose it after RequireAuth; it does not re-check
// authentication.
func (a *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c.Request.Context())
		if ok && user.IsAdmin {
			c.Next()
			return
		}

		a.cfg.Logf("auth: admin required", map[string]any{
			"path": c.Request.URL.Path,
		})

		if isProgrammatic(c.Request.URL.Path) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "Forbidden",
			})
			return
		}

		// authenticated but under-privileged: home, not the login page
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}

// unauthorized ends the request for callers without a usable identity.
// Interactive callers get their path recorded on the session so the
// login service can send them back; the redirect happens even when
// that write fails.
func (a *AuthMiddleware) unauthorized(c *gin.Context) {
	if isProgrammatic(c.Request.URL.Path) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "Unauthorized",
		})
		return
	}

	if sess, ok := session.FromContext(c.Request.Context()); ok && a.cfg.Sessions != nil {
		sess.ReturnTo = c.Request.URL.RequestURI()
		if err := a.cfg.Sessions.Save(c.Request.Context(), sess); err != nil {
			a.cfg.Logf("auth: failed to persist return path", map[string]any{
				"path":  sess.ReturnTo,
				"error": err.Error(),
			})
		}
	}

	c.Redirect(http.StatusFound, a.cfg.LoginURL)
	c.Abort()
}

// isProgrammatic classifies a caller by path prefix. API clients want
// machine-readable failures, browsers want redirects.
func isProgrammatic(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
