package authsdk

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"
)

var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// Session is an authenticated session with automatic access token refresh.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, tokenResp *TokenResponse, refreshToken string) *Session {
	return &Session{
		client:       client,
		accessToken:  tokenResp.AccessToken,
		refreshToken: refreshToken,
		expiresAt:    client.expiry(tokenResp.ExpiresIn),
	}
}

func (c *SDKClient) expiry(expiresIn int64) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - c.RefreshSkew)
}

// getValidToken returns the access token, refreshing it if it has expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	tokenResp, err := s.client.RefreshGrant(ctx, s.refreshToken)
	if err != nil {
		return "", err
	}

	s.accessToken = tokenResp.AccessToken
	s.expiresAt = s.client.expiry(tokenResp.ExpiresIn)
	return s.accessToken, nil
}

// Refresh forces an access token refresh.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	_, err := s.getValidToken(ctx)
	return err
}

// Logout revokes the session's refresh token.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if refreshToken == "" {
		return ErrNoRefreshToken
	}
	return s.client.RevokeToken(ctx, refreshToken)
}

// Me returns the identity the server resolves from the access token.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/me", nil)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}
	return &me, nil
}

// Revocations returns the size of the server's revocation set.
func (s *Session) Revocations(ctx context.Context) (int, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/admin/revocations", nil)
	if err != nil {
		return 0, err
	}

	var out RevocationsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// ListRoles returns every role known to the server. Requires ROLE_ADMIN.
func (s *Session) ListRoles(ctx context.Context) ([]RoleInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/admin/roles", nil)
	if err != nil {
		return nil, err
	}

	var out ListRolesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Roles, nil
}

// DeleteUser removes the user with userID. Requires ROLE_ADMIN.
func (s *Session) DeleteUser(ctx context.Context, userID int64) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/admin/users/"+strconv.FormatInt(userID, 10), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
