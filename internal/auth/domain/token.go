package domain

import "time"

// TokenPair is the result of a successful login. The refresh token leaves the
// service in a cookie only, never in a response body.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
