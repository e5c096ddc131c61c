package session

import (
	"net/http"
	"time"
)

// SetCookie issues the shared session cookie with the agreed
// parameters. Path must stay "/" so every service sees the cookie.
func SetCookie(
	w http.ResponseWriter,
	sessionID string,
	params Params,
) {
	http.SetCookie(w, &http.Cookie{
		Name:     params.CookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  time.Now().Add(params.Lifetime),
		HttpOnly: params.HTTPOnly,
		Secure:   params.Secure,
		SameSite: params.SameSite,
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(
	w http.ResponseWriter,
	params Params,
) {
	http.SetCookie(w, &http.Cookie{
		Name:     params.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: params.HTTPOnly,
		Secure:   params.Secure,
		SameSite: params.SameSite,
	})
}
