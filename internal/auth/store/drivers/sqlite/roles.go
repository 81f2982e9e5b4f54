package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/auth/domain"
)

type rolesRepo struct {
	db DBTX
}

func (r *rolesRepo) EnsureRole(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if _, err := r.db.ExecContext(ctx, insertRoleIfMissing, name, time.Now().Unix()); err != nil {
		return 0, err
	}
	role, err := r.GetRoleByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return role.ID, nil
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var row roleRow
	err := r.db.QueryRowContext(ctx, getRoleByName, name).Scan(&row.ID, &row.Name, &row.CreatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return mapRole(row), nil
}

func (r *rolesRepo) ListAll(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, listAllRoles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var row roleRow
		if err := rows.Scan(&row.ID, &row.Name, &row.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, mapRole(row))
	}
	return roles, rows.Err()
}

func (r *rolesRepo) GrantRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.ExecContext(ctx, grantRole, userID, roleID)
	return mapNotFoundFK(err)
}

func (r *rolesRepo) RevokeRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.ExecContext(ctx, revokeRole, userID, roleID)
	return err
}

func (r *rolesRepo) ListUserRoles(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listUserRoles, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
