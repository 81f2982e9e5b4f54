package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// LoginGrant posts credentials and returns the token body together with the
// refresh token taken from the Set-Cookie header.
func (c *SDKClient) LoginGrant(ctx context.Context, username, password string) (*TokenResponse, string, error) {
	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, "", err
	}

	var refreshToken string
	for _, ck := range resp.Cookies() {
		if ck.Name == RefreshCookieName {
			refreshToken = ck.Value
		}
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, "", err
	}
	if refreshToken == "" {
		return nil, "", fmt.Errorf("login response carried no %s cookie", RefreshCookieName)
	}

	return &tokenResp, refreshToken, nil
}

// RefreshGrant exchanges a refresh token for a new access token. The refresh
// token itself stays the same.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/refresh", nil, refreshCookieHeader(refreshToken))
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

// RevokeToken logs out by revoking the refresh token. The server answers 204
// even for tokens it does not recognise.
func (c *SDKClient) RevokeToken(ctx context.Context, refreshToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, refreshCookieHeader(refreshToken))
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func refreshCookieHeader(token string) map[string]string {
	return map[string]string{"Cookie": RefreshCookieName + "=" + token}
}
