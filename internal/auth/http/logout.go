package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// LogoutHandler revokes the refresh token in the request cookie. It answers
// 204 whether or not there was anything to revoke, in the manner of RFC 7009.
// Only tokens that still validate are added to the revocation set; anything
// else is already unusable.
type LogoutHandler struct {
	TokenService *service.TokenService
	Cookies      CookieConfig
	Now          func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Revokes the refresh token carried in the refreshToken cookie and clears the cookie. Access tokens already issued stay valid until they expire.
//	@Tags			Auth
//	@Param			Cookie	header	string	false	"refreshToken=<token>"
//	@Success		204		"Logged out (or nothing to revoke)"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if token, ok := ReadRefreshCookie(r); ok {
		if claims, err := h.TokenService.Validate(token, h.Now()); err != nil {
			l.Debug("logout with unusable token", "err", err)
		} else {
			h.TokenService.Revoke(token)
			l.Info("refresh token revoked", "user_id", claims.UserID)
		}
	}

	h.Cookies.ClearRefreshCookie(w)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
