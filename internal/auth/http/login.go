package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

const maxLoginBody = 4 << 10

type LoginHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	Cookies      CookieConfig
	Now          func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Verifies a username and password. The access token is returned in the body and the refresh token is set in the HttpOnly refreshToken cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse	"Access token"
//	@Header			200		{string}	Set-Cookie				"refreshToken=...; Path=/; Max-Age=...; HttpOnly"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid username or password"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	id, err := h.UserService.Verify(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		authsdk.ErrInvalidCredentials.WriteError(w)
		return
	} else if err != nil {
		l.Error("failed to verify credentials", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	pair, err := h.TokenService.IssueTokenPair(id, h.Now())
	if err != nil {
		l.Error("failed to issue tokens", "user_id", id.UserID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	l.Info("user logged in", "user_id", id.UserID)

	h.Cookies.SetRefreshCookie(w, pair.RefreshToken, h.TokenService.RefreshTTL)
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.TokenService.AccessTTL / time.Second),
	})
}
