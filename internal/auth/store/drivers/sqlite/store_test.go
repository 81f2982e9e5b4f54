package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
	"github.com/aussiebroadwan/tokengate/internal/auth/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore("file::memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)
}

func TestSchemaVersion_Fresh(t *testing.T) {
	s, err := sqlite.NewStore("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	version, err := s.SchemaVersion()
	require.NoError(t, err)
	require.Zero(t, version)
}

func TestUsers_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	id, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Positive(t, id)

	u, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "hash", u.PasswordHash)
	require.Empty(t, u.Roles)
	require.False(t, u.CreatedAt.IsZero())

	byID, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	empty, err = s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestUsers_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().CreateUser(ctx, domain.User{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = s.Users().CreateUser(ctx, domain.User{Username: "bob", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, 999, "x"), store.ErrNotFound)
	require.ErrorIs(t, s.Users().DeleteUser(ctx, 999), store.ErrNotFound)
}

func TestUsers_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Users().CreateUser(ctx, domain.User{Username: "carol", PasswordHash: "old"})
	require.NoError(t, err)
	require.NoError(t, s.Users().UpdatePasswordHash(ctx, id, "new"))

	u, err := s.Users().GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "new", u.PasswordHash)
}

func TestRoles_GrantAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)

	admin, err := s.Roles().EnsureRole(ctx, "ADMIN")
	require.NoError(t, err)
	again, err := s.Roles().EnsureRole(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, admin, again)

	user, err := s.Roles().EnsureRole(ctx, "USER")
	require.NoError(t, err)

	require.NoError(t, s.Roles().GrantRole(ctx, uid, user))
	require.NoError(t, s.Roles().GrantRole(ctx, uid, admin))
	require.NoError(t, s.Roles().GrantRole(ctx, uid, admin))

	u, err := s.Users().GetUserByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, []string{"ADMIN", "USER"}, u.Roles)

	require.NoError(t, s.Roles().RevokeRole(ctx, uid, admin))
	names, err := s.Roles().ListUserRoles(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, []string{"USER"}, names)

	all, err := s.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.ErrorIs(t, s.Roles().GrantRole(ctx, 999, admin), store.ErrNotFound)
}

func TestDeleteUser_CascadesRoles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	uid, err := s.Users().CreateUser(ctx, domain.User{Username: "dave", PasswordHash: "h"})
	require.NoError(t, err)
	rid, err := s.Roles().EnsureRole(ctx, "USER")
	require.NoError(t, err)
	require.NoError(t, s.Roles().GrantRole(ctx, uid, rid))

	require.NoError(t, s.Users().DeleteUser(ctx, uid))
	names, err := s.Roles().ListUserRoles(ctx, uid)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("commit", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			_, err := tx.Users().CreateUser(ctx, domain.User{Username: "committed", PasswordHash: "h"})
			return err
		})
		require.NoError(t, err)

		_, err = s.Users().GetUserByUsername(ctx, "committed")
		require.NoError(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Users().CreateUser(ctx, domain.User{Username: "rolled", PasswordHash: "h"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Users().GetUserByUsername(ctx, "rolled")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("nested tx rejected", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}
