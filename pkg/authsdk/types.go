package authsdk

import "github.com/aussiebroadwan/tokengate/pkg/jwtx"

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// ErrorResponse is the wire form of an error body.
type ErrorResponse struct {
	Error            string `json:"error" example:"invalid_grant"`
	ErrorDescription string `json:"error_description,omitempty" example:"refresh token is invalid"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// TokenResponse is returned by login and refresh. The refresh token is never
// part of the body; it travels in the refreshToken cookie.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int64  `json:"expires_in" example:"900"`
}

// MeResponse describes the caller of GET /v1/me.
type MeResponse struct {
	UserID   int64    `json:"user_id" example:"1"`
	Username string   `json:"username" example:"alice"`
	Roles    []string `json:"roles" example:"ROLE_ADMIN,ROLE_USER"`
}

// RevocationsResponse is returned by GET /v1/admin/revocations.
type RevocationsResponse struct {
	Revoked int `json:"revoked" example:"3"`
}

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"1.0.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each readiness dependency.
type HealthChecks struct {
	Database string `json:"database" example:"ok"`
	Signer   string `json:"signer" example:"ok"`
}

// JWKSResponse contains the JSON Web Key Set.
type JWKSResponse jwtx.JWKS

// RoleInfo is one entry of GET /v1/admin/roles.
type RoleInfo struct {
	ID   int64  `json:"id" example:"1"`
	Name string `json:"name" example:"ROLE_ADMIN"`
}

type ListRolesResponse struct {
	Roles []RoleInfo `json:"roles"`
}
