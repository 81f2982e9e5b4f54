package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
)

// CookieConfig controls the attributes of the refresh token cookie. HttpOnly
// and Path=/ are always set.
type CookieConfig struct {
	Secure   bool
	Domain   string
	SameSite http.SameSite
}

func (c CookieConfig) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     authsdk.RefreshCookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

// SetRefreshCookie hands the refresh token to the client for lifetime,
// rounded up to whole seconds. Max-Age is always at least 1 so the cookie
// never degrades into a session cookie.
func (c CookieConfig) SetRefreshCookie(w http.ResponseWriter, token string, lifetime time.Duration) {
	maxAge := int((lifetime + time.Second - 1) / time.Second)
	http.SetCookie(w, c.refreshCookie(token, max(maxAge, 1)))
}

// ClearRefreshCookie tells the client to drop the refresh token.
func (c CookieConfig) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, c.refreshCookie("", -1))
}

// ReadRefreshCookie returns the refresh token sent with r, if any.
func ReadRefreshCookie(r *http.Request) (string, bool) {
	ck, err := r.Cookie(authsdk.RefreshCookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
