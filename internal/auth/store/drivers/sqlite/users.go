package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
	"github.com/aussiebroadwan/tokengate/internal/auth/store"
)

type usersRepo struct {
	db DBTX
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row, err := scanUser(r.db.QueryRowContext(ctx, getUserByID, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.withRoles(ctx, row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := scanUser(r.db.QueryRowContext(ctx, getUserByUsername, username))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.withRoles(ctx, row)
}

func (r *usersRepo) withRoles(ctx context.Context, row userRow) (domain.User, error) {
	roles, err := (&rolesRepo{db: r.db}).ListUserRoles(ctx, row.ID)
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row, roles), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	now := time.Now().Unix()
	res, err := r.db.ExecContext(ctx, createUser, u.Username, u.PasswordHash, now, now)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	return r.execOne(ctx, updateUserPasswordHash, newHash, time.Now().Unix(), userID)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID int64) error {
	return r.execOne(ctx, deleteUser, userID)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, countUsers).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// execOne runs a statement that must touch exactly one user row.
func (r *usersRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
