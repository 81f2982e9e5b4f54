package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies login is held to the strict profile
// (5 req/min per address and username).
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	for i := range 5 {
		_, err := client.Login(ctx, "wronguser", "wrongpass")
		requireOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
		t.Logf("request %d rejected on credentials", i+1)
	}

	_, err := client.Login(ctx, "wronguser", "wrongpass")
	requireOAuthError(t, err, http.StatusTooManyRequests, authsdk.ErrorCodeRateLimited)

	// The bucket is keyed by username too, so another account still gets in.
	loginAdmin(t, client)
}

// TestRateLimitHeaders verifies a throttled response tells the caller when to
// come back.
func TestRateLimitHeaders(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	body, err := json.Marshal(authsdk.LoginRequest{Username: "wronguser", Password: "wrongpass"})
	require.NoError(t, err)

	post := func() *http.Response {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/v1/auth/login", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	for range 5 {
		resp := post()
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	resp := post()
	defer resp.Body.Close()

	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	require.Equal(t, "5", resp.Header.Get("X-RateLimit-Limit"))
	require.Equal(t, "1m0s", resp.Header.Get("X-RateLimit-Window"))
}

// TestRateLimitJWKSEndpoint verifies the JWKS endpoint tolerates frequent
// polling.
func TestRateLimitJWKSEndpoint(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	for i := range 50 {
		_, err := client.GetJWKS(t.Context())
		require.NoError(t, err, "request %d should not be rate limited", i+1)
	}
}
