package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness calls /livez.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return getPublic[HealthResponse](ctx, c, "/livez")
}

// GetReadiness calls /readyz. A degraded service yields an *OAuth2Error
// with status 503.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return getPublic[HealthResponse](ctx, c, "/readyz")
}

// GetJWKS fetches the key set used to verify access tokens.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	return getPublic[JWKSResponse](ctx, c, "/.well-known/jwks.json")
}

// getPublic performs an unauthenticated GET expecting 200 and a JSON body.
func getPublic[T any](ctx context.Context, c *SDKClient, path string) (*T, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	out := new(T)
	if err := decodeJSON(resp, out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}
