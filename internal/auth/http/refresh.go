package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

type RefreshHandler struct {
	TokenService *service.TokenService
	Now          func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Refresh the access token
//	@Description	Exchanges the refreshToken cookie for a new access token. The refresh token is not rotated and stays valid until it expires or is revoked.
//	@Tags			Auth
//	@Produce		json
//	@Param			Cookie	header		string					true	"refreshToken=<token>"
//	@Success		200		{object}	authsdk.TokenResponse	"New access token"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Missing refresh token cookie"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Refresh token is invalid, expired or revoked"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	token, ok := ReadRefreshCookie(r)
	if !ok {
		authsdk.ErrMissingRefreshCookie.WriteError(w)
		return
	}

	access, err := h.TokenService.Refresh(ctx, token, h.Now())
	if isTokenRejection(err) {
		l.Warn("refresh rejected", "err", err)
		authsdk.ErrInvalidGrant.WriteError(w)
		return
	} else if err != nil {
		l.Error("failed to refresh token", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.TokenService.AccessTTL / time.Second),
	})
}

// isTokenRejection reports whether err means the presented token is unusable,
// as opposed to an internal failure.
func isTokenRejection(err error) bool {
	for _, target := range []error{
		service.ErrTokenRevoked,
		service.ErrInvalidRefresh,
		jwtx.ErrMalformed,
		jwtx.ErrInvalidSig,
		jwtx.ErrUnsupported,
		jwtx.ErrExpired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
