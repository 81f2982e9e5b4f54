/*
Package authsdk provides a client for the tokengate authentication service.

# SDKClient vs Session

SDKClient covers the public endpoints and creates sessions:

	client := authsdk.NewSDKClient("https://auth.example.com")

	health, err := client.GetLiveness(ctx)
	jwks, err := client.GetJWKS(ctx)

	session, err := client.Login(ctx, "alice", "s3cret")

A Session holds the access token and the refresh token delivered in the
refreshToken cookie. When the access token is close to expiry the session
exchanges the refresh token for a new one before sending the request:

	me, err := session.Me(ctx)
	n, err := session.Revocations(ctx) // requires ROLE_ADMIN

	// Revokes the refresh token server side.
	err = session.Logout(ctx)

# Errors

Non-2xx responses are returned as *OAuth2Error carrying the HTTP status, the
error code and its description. Compare codes with the ErrorCode constants:

	var oauthErr *authsdk.OAuth2Error
	if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidGrant {
		// log in again
	}

The same error values are used by the server to write its responses.
*/
package authsdk
