package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// BearerPrefix is the scheme marker plus its single separator.
const BearerPrefix = "Bearer "

// TokenValidator checks a token string at a point in time.
type TokenValidator interface {
	Validate(token string, now time.Time) (jwtx.Claims, error)
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <t>"
// header. Any other scheme, a missing header, or an empty token yields false.
func ExtractBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, BearerPrefix) {
		return "", false
	}
	token := h[len(BearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticator resolves a request to the identity carried by its bearer
// token. It never fails: every problem collapses into "no identity".
type Authenticator struct {
	Tokens TokenValidator
	Now    func() time.Time
}

func NewAuthenticator(tokens TokenValidator) *Authenticator {
	return &Authenticator{Tokens: tokens, Now: time.Now}
}

// Authenticate returns the identity for r, or false when the request has no
// usable token. The rejection reason is logged, never returned.
func (a *Authenticator) Authenticate(r *http.Request) (jwtx.Identity, bool) {
	token, ok := ExtractBearerToken(r)
	if !ok {
		return jwtx.Identity{}, false
	}

	claims, err := a.Tokens.Validate(token, a.Now())
	if err != nil {
		slogx.FromContext(r.Context()).Warn("bearer token rejected", "err", err)
		return jwtx.Identity{}, false
	}
	return claims.Identity(), true
}

// AuthnMiddleware requires a valid bearer token and places the identity in
// the request context. All failures get the same 401 response.
func AuthnMiddleware(a *Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := a.Authenticate(r)
			if !ok {
				writeBearerError(w)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = slogx.With(ctx, "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750 error response for bearer auth. The description is deliberately
// identical for every failure.
func writeBearerError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="authentication required"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", "authentication required")
}
