package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

var (
	ErrBootstrapAlready       = errors.New("system already bootstrapped")
	ErrBootstrapInvalidConfig = errors.New("bootstrap requires a username")
)

type BootstrapService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the first user with the given roles. It only runs on an
// empty user table. When no password is supplied one is generated and
// returned so the operator can log in once.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (int64, string, error) {
	l := slogx.FromContext(ctx)

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return 0, "", ErrBootstrapInvalidConfig
	}

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return 0, "", err
	} else if bootstrapped {
		return 0, "", ErrBootstrapAlready
	}

	password := req.Password
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			return 0, "", err
		}
		password = generated
	}

	passHash, err := s.Hasher.Hash(password)
	if err != nil {
		return 0, "", err
	}

	var userID int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Users().CreateUser(ctx, domain.User{
			Username:     req.Username,
			PasswordHash: passHash,
		})
		if err != nil {
			return err
		}
		userID = id

		for _, name := range req.Roles {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			roleID, err := tx.Roles().EnsureRole(ctx, name)
			if err != nil {
				return err
			}
			if err := tx.Roles().GrantRole(ctx, userID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		l.Error("bootstrap failed", slog.Any("error", err))
		return 0, "", err
	}

	l.Info("bootstrapped first user",
		slog.Int64("user_id", userID),
		slog.String("username", req.Username),
		slog.Any("roles", req.Roles),
	)
	return userID, password, nil
}
