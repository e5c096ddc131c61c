package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/juju/mgo/v3/bson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WindriderQc/nodeTools/internal/auth"
	"github.com/WindriderQc/nodeTools/internal/middleware"
	"github.com/WindriderQc/nodeTools/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	memberID = "507f1f77bcf86cd799439011"
	adminID  = "507f1f77bcf86cd799439012"
	staleID  = "507f1f77bcf86cd799439099"
)

type fakeUserStore struct {
	users map[string]*auth.User
	err   error
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !bson.IsObjectIdHex(id) {
		return nil, auth.ErrMalformedID
	}
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*auth.User{
		memberID: {ID: memberID, Name: "Max", Email: "max@sbqc.dev"},
		adminID:  {ID: adminID, Name: "Vee", Email: "vee@sbqc.dev", IsAdmin: true},
	}}
}

type fakeSessions struct {
	saved   []session.Session
	saveErr error
}

func (f *fakeSessions) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	return nil, nil
}

func (f *fakeSessions) Save(ctx context.Context, s *session.Session) error {
	f.saved = append(f.saved, *s)
	return f.saveErr
}

// withSession stands in for the host session layer. A nil session
// simulates a deployment that forgot to apply it.
func withSession(s *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s != nil {
			ctx := session.NewContext(c.Request.Context(), s)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func whoami(c *gin.Context) {
	if user, ok := middleware.CurrentUser(c.Request.Context()); ok {
		c.JSON(http.StatusOK, gin.H{"user": user.ID, "admin": user.IsAdmin})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": nil})
}

func newRouter(t *testing.T, cfg middleware.Config, sess *session.Session) *gin.Engine {
	t.Helper()

	mw, err := middleware.NewAuthMiddleware(cfg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(withSession(sess))

	r.GET("/", mw.OptionalAuth(), whoami)
	r.GET("/apiary", mw.RequireAuth(), whoami)

	api := r.Group("/api")
	api.GET("", mw.RequireAuth(), whoami)
	api.GET("/devices", mw.RequireAuth(), whoami)
	api.GET("/admin/users", mw.RequireAuth(), mw.RequireAdmin(), whoami)

	r.GET("/admin/devices", mw.RequireAuth(), whoami)
	r.GET("/admin/panel", mw.RequireAuth(), mw.RequireAdmin(), whoami)

	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestNewAuthMiddlewareRequiresStore(t *testing.T) {
	_, err := middleware.NewAuthMiddleware(middleware.Config{})
	require.Error(t, err)
}

func TestRequireAuthProgrammaticAnonymous(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1"})

	w := get(r, "/api/devices")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Unauthorized", body["message"])
}

func TestRequireAuthProgrammaticMissingSessionLayer(t *testing.T) {
	// a wiring defect looks like a normal unauthenticated call
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, nil)

	w := get(r, "/api/devices")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, w)["message"])
}

func TestRequireAuthInteractiveRedirectsAndRecordsReturnPath(t *testing.T) {
	sessions := &fakeSessions{}
	r := newRouter(t, middleware.Config{
		Store:    func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
		Sessions: sessions,
	}, &session.Session{ID: "s1"})

	w := get(r, "/admin/devices?tab=2")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, middleware.DefaultLoginURL, w.Header().Get("Location"))

	require.Len(t, sessions.saved, 1)
	assert.Equal(t, "s1", sessions.saved[0].ID)
	assert.Equal(t, "/admin/devices?tab=2", sessions.saved[0].ReturnTo)
}

func TestRequireAuthRedirectSurvivesSaveFailure(t *testing.T) {
	sessions := &fakeSessions{saveErr: errors.New("store down")}
	r := newRouter(t, middleware.Config{
		Store:    func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
		Sessions: sessions,
		LoginURL: "https://login.example.com/",
	}, &session.Session{ID: "s1"})

	w := get(r, "/admin/devices")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://login.example.com/", w.Header().Get("Location"))
}

func TestRequireAuthStaleUserNeverAuthenticates(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: staleID})

	w := get(r, "/api/devices")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthMalformedUserID(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: "not-an-objectid"})

	w := get(r, "/api/devices")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthStoreErrorDegradesToUnauthenticated(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore {
			return &fakeUserStore{err: errors.New("connection reset")}
		},
	}, &session.Session{ID: "s1", UserID: memberID})

	w := get(r, "/api/devices")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "no 500 from a store outage")
}

func TestRequireAuthNilStoreHandle(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return nil },
	}, &session.Session{ID: "s1", UserID: memberID})

	w := get(r, "/api/devices")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthSuccess(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: memberID})

	w := get(r, "/api/devices")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, memberID, body["user"])
	assert.Equal(t, false, body["admin"])
}

func TestRequireAdminProgrammaticForbidden(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: memberID})

	w := get(r, "/api/admin/users")

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Forbidden", body["message"])
}

func TestRequireAdminInteractiveRedirectsHome(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: memberID})

	w := get(r, "/admin/panel")

	// under-privileged but authenticated: home, not login
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: adminID})

	for _, path := range []string{"/api/admin/users", "/admin/panel"} {
		w := get(r, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, true, decodeBody(t, w)["admin"], path)
	}
}

func TestOptionalAuthNeverBlocks(t *testing.T) {
	for name, sess := range map[string]*session.Session{
		"no session layer": nil,
		"anonymous":        {ID: "s1"},
		"stale user":       {ID: "s1", UserID: staleID},
		"authenticated":    {ID: "s1", UserID: memberID},
	} {
		r := newRouter(t, middleware.Config{
			Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
		}, sess)

		w := get(r, "/")
		assert.Equal(t, http.StatusOK, w.Code, name)
	}
}

func TestOptionalAuthPublishesIdentity(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1", UserID: memberID})

	body := decodeBody(t, get(r, "/"))
	assert.Equal(t, memberID, body["user"])
}

func TestCallerClassificationByPathPrefix(t *testing.T) {
	r := newRouter(t, middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	}, &session.Session{ID: "s1"})

	// bare /api is programmatic
	assert.Equal(t, http.StatusUnauthorized, get(r, "/api").Code)

	// /apiary is not under the api prefix, so the caller is interactive
	w := get(r, "/apiary")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, middleware.DefaultLoginURL, w.Header().Get("Location"))
}

func TestResolveIsIdempotent(t *testing.T) {
	mw, err := middleware.NewAuthMiddleware(middleware.Config{
		Store: func(c *gin.Context) auth.UserStore { return newFakeUserStore() },
	})
	require.NoError(t, err)

	var first, second auth.User

	r := gin.New()
	r.Use(withSession(&session.Session{ID: "s1", UserID: memberID}))
	r.GET("/",
		mw.AttachUser(),
		func(c *gin.Context) {
			u, ok := middleware.CurrentUser(c.Request.Context())
			require.True(t, ok)
			first = *u
			c.Next()
		},
		mw.AttachUser(),
		func(c *gin.Context) {
			u, ok := middleware.CurrentUser(c.Request.Context())
			require.True(t, ok)
			second = *u
			c.Status(http.StatusOK)
		},
	)

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first, second)
}
