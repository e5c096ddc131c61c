package session

import (
	"github.com/gin-gonic/gin"
)

// Attach loads the shared session record named by the cookie and makes
// it available to the rest of the request. Requests without a cookie
// (or whose record is gone) get a fresh anonymous session so downstream
// code can always rely on the container being present. Attach never
// rejects; an unreadable store degrades to an anonymous session.
func Attach(store Store, params Params, logf func(msg string, fields map[string]any)) gin.HandlerFunc {
	if logf == nil {
		logf = func(string, map[string]any) {}
	}

	return func(c *gin.Context) {
		sess := load(c, store, params, logf)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), sess))
		c.Next()
	}
}

func load(c *gin.Context, store Store, params Params, logf func(msg string, fields map[string]any)) *Session {
	cookie, err := c.Request.Cookie(params.CookieName)
	if err == nil && cookie.Value != "" {
		sess, err := store.Get(c.Request.Context(), cookie.Value)
		if err != nil {
			logf("session load failed", map[string]any{
				"error": err.Error(),
			})
			// keep the caller's id; the record may reappear
			return &Session{ID: cookie.Value}
		}
		if sess != nil {
			return sess
		}
		// cookie names a record the login service already destroyed
	}

	id, err := GenerateID()
	if err != nil {
		logf("session id generation failed", map[string]any{
			"error": err.Error(),
		})
		return &Session{}
	}

	SetCookie(c.Writer, id, params)
	return &Session{ID: id}
}
