package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/tokengate/internal/auth/revocation"
	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

// RevocationsHandler godoc
//
//	@Summary		Revocation set size
//	@Description	Returns how many tokens are currently held in the revocation set. Requires ROLE_ADMIN.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.RevocationsResponse	"Current size"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing or invalid access token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Caller lacks ROLE_ADMIN"
//	@Router			/v1/admin/revocations [get].
func RevocationsHandler(revoked revocation.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.RevocationsResponse{Revoked: revoked.Len()})
	}
}

type DeleteUserHandler struct {
	UserService *service.UserService
}

// ServeHTTP deletes a user by id.
//
//	@Summary		Delete a user
//	@Description	Removes a user and its role grants. Outstanding access tokens stay valid until they expire; refresh tokens stop working immediately. Requires ROLE_ADMIN.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Param			id	path	int	true	"User id"
//	@Success		204	"User deleted"
//	@Failure		400	{object}	authsdk.ErrorResponse	"Bad id, or the caller's own account"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Caller lacks ROLE_ADMIN"
//	@Failure		404	{object}	authsdk.ErrorResponse	"No such user"
//	@Router			/v1/admin/users/{id} [delete].
func (h *DeleteUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || userID <= 0 {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if caller, ok := httpx.IdentityFromContext(ctx); ok && caller.UserID == userID {
		authsdk.ErrSelfDelete.WriteError(w)
		return
	}

	switch err := h.UserService.Delete(ctx, userID); {
	case errors.Is(err, store.ErrNotFound):
		authsdk.ErrUserNotFound.WriteError(w)
	case err != nil:
		log.Error("failed to delete user", "user_id", userID, "error", err)
		authsdk.ErrServerError.WriteError(w)
	default:
		log.Info("user deleted", "user_id", userID)
		w.WriteHeader(http.StatusNoContent)
	}
}
