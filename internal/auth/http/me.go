package http

import (
	"net/http"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
)

// MeHandler godoc
//
//	@Summary		Current identity
//	@Description	Returns the identity resolved from the bearer access token.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse		"Authenticated identity"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid access token"
//	@Router			/v1/me [get].
func MeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		authsdk.ErrServerError.WriteError(w)
		return
	}

	roles := id.Roles
	if roles == nil {
		roles = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{
		UserID:   id.UserID,
		Username: id.Username,
		Roles:    roles,
	})
}
