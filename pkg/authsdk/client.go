package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient talks to the public endpoints of the service and creates
// authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// RefreshSkew is how long before expiry a session refreshes its access
	// token. Defaults to 30 seconds.
	RefreshSkew time.Duration
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		RefreshSkew: 30 * time.Second,
	}
}

// Login authenticates with a username and password and returns a session
// holding both tokens.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, error) {
	tokenResp, refreshToken, err := c.LoginGrant(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp, refreshToken), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int64) *Session {
	return newSession(c, &TokenResponse{AccessToken: accessToken, ExpiresIn: expiresIn}, refreshToken)
}
