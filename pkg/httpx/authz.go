package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
)

// RequireAnyRole lets the request through when the authenticated identity
// holds at least one of the roles. Role names are normalized before
// comparison so "ADMIN" and "ROLE_ADMIN" are the same requirement.
func RequireAnyRole(required ...string) Middleware {
	want := normalizeAll(required)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeBearerError(w)
				return
			}

			for _, role := range want {
				if id.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeInsufficientRole(w, want)
		})
	}
}

// RequireAllRoles requires every listed role.
func RequireAllRoles(required ...string) Middleware {
	want := normalizeAll(required)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeBearerError(w)
				return
			}

			for _, role := range want {
				if !id.HasRole(role) {
					writeInsufficientRole(w, want)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func normalizeAll(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if n := jwtx.NormalizeRole(r); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func writeInsufficientRole(w http.ResponseWriter, required []string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "insufficient_scope", "missing required role")
}
