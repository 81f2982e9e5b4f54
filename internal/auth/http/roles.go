package http

import (
	"net/http"

	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/httpx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

type RolesHandler struct {
	RolesService *service.RolesService
}

// ServeHTTP handles the list roles endpoint
//
//	@Summary		List all roles
//	@Description	Returns every role known to the user store. Requires ROLE_ADMIN.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	authsdk.ListRolesResponse	"List of roles"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Missing or invalid access token"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Caller lacks ROLE_ADMIN"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/v1/admin/roles [get].
func (h *RolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	roles, err := h.RolesService.ListAll(ctx)
	if err != nil {
		log.Error("failed to list roles", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	response := authsdk.ListRolesResponse{
		Roles: make([]authsdk.RoleInfo, len(roles)),
	}
	for i, role := range roles {
		response.Roles[i] = authsdk.RoleInfo{ID: role.ID, Name: role.Name}
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
