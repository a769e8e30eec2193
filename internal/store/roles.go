package store

import (
	"context"

	"github.com/olegiv/oblog-go/internal/model"
)

// CreateRole inserts a role and returns it with its assigned ID.
func (q *Queries) CreateRole(ctx context.Context, name string, isDefault bool, permissions model.Permission) (model.Role, error) {
	var role model.Role
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO roles (name, is_default, permissions)
		VALUES (?, ?, ?)
		RETURNING id, name, is_default, permissions`,
		name, isDefault, permissions,
	).Scan(&role.ID, &role.Name, &role.IsDefault, &role.Permissions)
	return role, err
}

// GetRoleByName returns the role with the given name.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, is_default, permissions FROM roles WHERE name = ?`,
		name,
	).Scan(&role.ID, &role.Name, &role.IsDefault, &role.Permissions)
	return role, err
}

// GetDefaultRole returns the role assigned to new registrations.
func (q *Queries) GetDefaultRole(ctx context.Context) (model.Role, error) {
	var role model.Role
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, is_default, permissions FROM roles WHERE is_default = 1`,
	).Scan(&role.ID, &role.Name, &role.IsDefault, &role.Permissions)
	return role, err
}

// GetRoleByPermissions returns the first role holding exactly the given bits.
func (q *Queries) GetRoleByPermissions(ctx context.Context, permissions model.Permission) (model.Role, error) {
	var role model.Role
	err := q.db.QueryRowContext(ctx, `
		SELECT id, name, is_default, permissions FROM roles WHERE permissions = ?`,
		permissions,
	).Scan(&role.ID, &role.Name, &role.IsDefault, &role.Permissions)
	return role, err
}

// ListRoles returns all roles ordered by ID.
func (q *Queries) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, is_default, permissions FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.IsDefault, &role.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpdateRole sets a role's default flag and permission bits. Names are fixed
// at bootstrap; permissions are the only field expected to change afterwards.
func (q *Queries) UpdateRole(ctx context.Context, id int64, isDefault bool, permissions model.Permission) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE roles SET is_default = ?, permissions = ? WHERE id = ?`,
		isDefault, permissions, id)
	return err
}
