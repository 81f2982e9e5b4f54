package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	"github.com/aussiebroadwan/tokengate/internal/auth/metrics"
	"github.com/aussiebroadwan/tokengate/internal/auth/revocation"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

var (
	ErrTokenRevoked   = errors.New("token_revoked")
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
)

// RoleLookup resolves the current role names of the user with the given id.
// Refresh consults it so a new access token reflects grants made since login.
// It returns store.ErrNotFound when no such user exists or the id now
// belongs to a different username.
type RoleLookup interface {
	RolesFor(ctx context.Context, userID int64, username string) ([]string, error)
}

// TokenService issues, validates, refreshes and revokes signed tokens. It is
// safe for concurrent use once constructed; time is always supplied by the
// caller.
type TokenService struct {
	Codec      *jwtx.Codec
	Revoked    revocation.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Roles is optional. Without it refreshed access tokens carry no roles.
	Roles   RoleLookup
	Metrics *metrics.Metrics
}

// NewTokenService returns a service with the default lifetimes and an empty
// in-memory revocation set.
func NewTokenService(codec *jwtx.Codec) *TokenService {
	return &TokenService{
		Codec:      codec,
		Revoked:    revocation.NewMemory(),
		AccessTTL:  jwtx.DefaultAccessTokenTTL,
		RefreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
}

// IssueAccessToken signs an access token carrying the identity's roles.
func (s *TokenService) IssueAccessToken(id jwtx.Identity, now time.Time) (string, error) {
	return s.issue(id, jwtx.KindAccess, now, s.AccessTTL)
}

// IssueRefreshToken signs a refresh token. Refresh tokens never carry roles.
func (s *TokenService) IssueRefreshToken(id jwtx.Identity, now time.Time) (string, error) {
	return s.issue(id, jwtx.KindRefresh, now, s.RefreshTTL)
}

// IssueTokenPair issues both tokens for a freshly authenticated identity.
func (s *TokenService) IssueTokenPair(id jwtx.Identity, now time.Time) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(id, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(id, now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.AccessTTL),
		RefreshExpiresAt: now.Add(s.RefreshTTL),
	}, nil
}

func (s *TokenService) issue(id jwtx.Identity, kind jwtx.Kind, now time.Time, ttl time.Duration) (string, error) {
	token, err := s.Codec.Encode(id, kind, now, ttl)
	if err != nil {
		return "", err
	}
	s.Metrics.ObserveIssued(kind.String())
	return token, nil
}

// Validate checks revocation, then signature, then expiry. Codec errors are
// returned with their jwtx sentinel intact; an expired token yields
// jwtx.ErrExpired and a revoked one ErrTokenRevoked.
func (s *TokenService) Validate(token string, now time.Time) (jwtx.Claims, error) {
	if s.Revoked.IsRevoked(token) {
		s.Metrics.ObserveValidation(metrics.ResultRevoked)
		return jwtx.Claims{}, ErrTokenRevoked
	}

	claims, err := s.Codec.Decode(token)
	if err != nil {
		s.Metrics.ObserveValidation(decodeResult(err))
		return jwtx.Claims{}, err
	}

	if err := claims.ValidateExpiry(now); err != nil {
		s.Metrics.ObserveValidation(metrics.ResultExpired)
		return jwtx.Claims{}, err
	}

	s.Metrics.ObserveValidation(metrics.ResultValid)
	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is left untouched and stays usable until it expires or is
// revoked.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string, now time.Time) (string, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Validate(refreshToken, now)
	if err != nil {
		return "", err
	}

	id := jwtx.Identity{UserID: claims.UserID, Username: claims.Subject}
	if s.Roles != nil {
		roles, err := s.Roles.RolesFor(ctx, claims.UserID, claims.Subject)
		switch {
		case errors.Is(err, store.ErrNotFound):
			l.Info("refresh for unknown user", slog.Int64("user_id", claims.UserID))
			return "", ErrInvalidRefresh
		case err != nil:
			return "", fmt.Errorf("lookup roles: %w", err)
		}
		id.Roles = roles
	}

	return s.IssueAccessToken(id, now)
}

// Revoke adds token to the revocation set. The token's own expiry is kept
// when it can be read so the entry can be pruned later; tokens that do not
// decode are still revoked, just never pruned.
func (s *TokenService) Revoke(token string) {
	var exp time.Time
	if claims, err := s.Codec.Decode(token); err == nil {
		exp = claims.ExpiresAt.Time
	}
	s.Revoked.Revoke(token, exp)
	s.Metrics.ObserveRevoked()
}

// IsRevoked reports whether the exact token string has been revoked.
func (s *TokenService) IsRevoked(token string) bool {
	return s.Revoked.IsRevoked(token)
}

// PruneRevoked forgets revocations for tokens that have expired anyway.
func (s *TokenService) PruneRevoked(now time.Time) int {
	return s.Revoked.Prune(now)
}

func decodeResult(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrInvalidSig):
		return metrics.ResultSignature
	case errors.Is(err, jwtx.ErrUnsupported):
		return metrics.ResultUnsupport
	default:
		return metrics.ResultMalformed
	}
}
