package service_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	"github.com/aussiebroadwan/tokengate/internal/auth/service"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	h := cryptox.NewPasswordHasher("pepper")
	svc := &service.BootstrapService{Store: st, Hasher: h}

	done, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	id, password, err := svc.Bootstrap(ctx, domain.BootstrapData{
		Username: "admin",
		Password: "s3cret",
		Roles:    []string{"ADMIN", "USER", " "},
	})
	require.NoError(t, err)
	require.Positive(t, id)
	require.Equal(t, "s3cret", password)

	identity, err := (&service.UserService{Store: st, Hasher: h}).Verify(ctx, "admin", "s3cret")
	require.NoError(t, err)
	require.Equal(t, []string{"ADMIN", "USER"}, identity.Roles)

	_, _, err = svc.Bootstrap(ctx, domain.BootstrapData{Username: "again", Password: "x"})
	require.ErrorIs(t, err, service.ErrBootstrapAlready)
}

func TestBootstrap_GeneratesPassword(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	h := cryptox.NewPasswordHasher("pepper")
	svc := &service.BootstrapService{Store: st, Hasher: h}

	_, password, err := svc.Bootstrap(ctx, domain.BootstrapData{Username: "root"})
	require.NoError(t, err)
	require.Len(t, password, 16)

	_, err = (&service.UserService{Store: st, Hasher: h}).Verify(ctx, "root", password)
	require.NoError(t, err)
}

func TestBootstrap_RequiresUsername(t *testing.T) {
	svc := &service.BootstrapService{Store: newStore(t), Hasher: cryptox.NewPasswordHasher("p")}
	_, _, err := svc.Bootstrap(context.Background(), domain.BootstrapData{Username: "  "})
	require.ErrorIs(t, err, service.ErrBootstrapInvalidConfig)
}
