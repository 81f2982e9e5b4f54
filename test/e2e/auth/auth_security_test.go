package auth_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/pkg/authsdk"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestLoginRejectsBadCredentials checks unknown users and wrong passwords are
// indistinguishable to the caller.
func TestLoginRejectsBadCredentials(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	for name, creds := range map[string][2]string{
		"wrong password": {adminUsername, "nope"},
		"unknown user":   {"mallory", adminPassword},
		"empty password": {adminUsername, ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := client.Login(t.Context(), creds[0], creds[1])
			require.Error(t, err)

			var oerr *authsdk.OAuth2Error
			require.ErrorAs(t, err, &oerr)
			require.Contains(t, []int{http.StatusBadRequest, http.StatusUnauthorized}, oerr.StatusCode)
		})
	}

	t.Run("same error for unknown user and wrong password", func(t *testing.T) {
		_, errA := client.Login(t.Context(), adminUsername, "nope")
		_, errB := client.Login(t.Context(), "mallory", "nope")
		requireOAuthError(t, errA, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
		requireOAuthError(t, errB, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)
		require.Equal(t, errA.Error(), errB.Error())
	})
}

// TestRejectsUntrustedTokens checks protected routes and refresh refuse
// tokens that were not issued by this server.
func TestRejectsUntrustedTokens(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()
	session := loginAdmin(t, client)

	// A well-formed token signed by a key the server has never seen.
	otherKey, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	otherPair, err := jwtx.NewKeyPair(otherKey)
	require.NoError(t, err)
	forged, err := jwtx.NewCodec(otherPair).Encode(
		jwtx.Identity{UserID: 1, Username: adminUsername, Roles: []string{"ADMIN"}},
		jwtx.KindAccess, time.Now(), 15*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(session.AccessToken(), ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	for name, token := range map[string]string{
		"garbage":  "not-a-jwt",
		"forged":   forged,
		"tampered": tampered,
	} {
		t.Run(name, func(t *testing.T) {
			s := client.NewSessionFromTokens(token, "", 900)
			_, err := s.Me(ctx)
			requireOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)

			_, err = client.RefreshGrant(ctx, token)
			requireOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidGrant)
		})
	}
}

// TestLogoutRevokesOnlyThePresentedToken checks revocation is per token: the
// access token issued alongside a revoked refresh token stays valid until it
// expires.
func TestLogoutRevokesOnlyThePresentedToken(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()
	session := loginAdmin(t, client)

	require.NoError(t, session.Logout(ctx))

	// The refresh token itself is now rejected as a bearer too.
	s := client.NewSessionFromTokens(session.RefreshToken(), "", 900)
	_, err := s.Me(ctx)
	requireOAuthError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)

	// The access token was never revoked.
	_, err = session.Me(ctx)
	require.NoError(t, err)
}

// TestMissingRefreshCookie checks refresh without a cookie is a client error.
func TestMissingRefreshCookie(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	_, err := client.RefreshGrant(t.Context(), "")
	requireOAuthError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
}
