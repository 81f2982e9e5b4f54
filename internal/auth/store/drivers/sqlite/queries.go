package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

const (
	getUserByID = `
SELECT id, username, password_hash, created_at, updated_at
FROM users WHERE id = ?`

	getUserByUsername = `
SELECT id, username, password_hash, created_at, updated_at
FROM users WHERE username = ?`

	createUser = `
INSERT INTO users (username, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?)`

	updateUserPasswordHash = `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	deleteUser = `DELETE FROM users WHERE id = ?`

	countUsers = `SELECT COUNT(*) FROM users`

	insertRoleIfMissing = `
INSERT INTO roles (name, created_at) VALUES (?, ?)
ON CONFLICT (name) DO NOTHING`

	getRoleByName = `SELECT id, name, created_at FROM roles WHERE name = ?`

	listAllRoles = `SELECT id, name, created_at FROM roles ORDER BY name`

	grantRole = `
INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)
ON CONFLICT (user_id, role_id) DO NOTHING`

	revokeRole = `DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`

	listUserRoles = `
SELECT r.name
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = ?
ORDER BY r.name`
)

type userRow struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    int64
	UpdatedAt    int64
}

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

type roleRow struct {
	ID        int64
	Name      string
	CreatedAt int64
}
