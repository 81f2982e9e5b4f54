package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtx"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

var ErrInvalidCredentials = errors.New("invalid_credentials")

// UserService verifies credentials against the user store.
type UserService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher

	// dummy is verified against when the user does not exist so unknown
	// usernames cost the same as wrong passwords.
	dummyOnce sync.Once
	dummy     string
}

// Verify checks username and password and returns the identity to embed in
// tokens. Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, username, password string) (jwtx.Identity, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return jwtx.Identity{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		_ = s.Hasher.Verify(password, s.dummyHash())
		l.Info("login for unknown user", slog.String("username", username))
		return jwtx.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return jwtx.Identity{}, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash unusable", slog.Int64("user_id", u.ID), slog.Any("error", err))
		}
		return jwtx.Identity{}, ErrInvalidCredentials
	}

	if s.Hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u.ID, password)
	}

	return jwtx.Identity{UserID: u.ID, Username: u.Username, Roles: u.Roles}, nil
}

// rehash upgrades a stored hash to the current parameters. Failure only
// costs the upgrade; the login itself already succeeded.
func (s *UserService) rehash(ctx context.Context, userID int64, password string) {
	l := slogx.FromContext(ctx)

	hash, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		l.Warn("password rehash failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.Int64("user_id", userID))
}

// Delete removes a user and its role grants. Tokens already issued to the
// user stay signed, but refresh stops working because the id no longer
// resolves.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	return s.Store.Users().DeleteUser(ctx, userID)
}

func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.Hasher.Hash("not-a-real-password")
	})
	return s.dummy
}
