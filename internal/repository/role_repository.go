package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"precinct/internal/apperr"
	"precinct/internal/database"
	"precinct/internal/models"
)

// RoleRepository handles role and permission database operations
type RoleRepository struct {
	db database.DBTX
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db database.DBTX) *RoleRepository {
	return &RoleRepository{db: db}
}

// Upsert creates a role or refreshes the description of an existing one and
// returns its ID
func (r *RoleRepository) Upsert(ctx context.Context, name, description string) (uint, error) {
	query := `
		INSERT INTO roles (name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	var id uint
	if err := r.db.QueryRowContext(ctx, query, name, description, time.Now()).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert role: %w", err)
	}
	return id, nil
}

// GetByName retrieves a role by name
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles
		WHERE name = $1
	`

	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, apperr.NotFound("Role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// GetAll retrieves all roles
func (r *RoleRepository) GetAll(ctx context.Context) ([]models.Role, error) {
	query := `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM roles
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	defer closeRows(rows)

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// SetActive enables or disables a role. Permissions of inactive roles are not
// granted to their holders.
func (r *RoleRepository) SetActive(ctx context.Context, roleID uint, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE roles SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), roleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectOneRow(res, "Role")
}

// UpsertPermission creates a permission code or refreshes its description and
// returns its ID
func (r *RoleRepository) UpsertPermission(ctx context.Context, code, description string) (uint, error) {
	query := `
		INSERT INTO permissions (code, description, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`

	var id uint
	if err := r.db.QueryRowContext(ctx, query, code, description, time.Now()).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert permission: %w", err)
	}
	return id, nil
}

// GetRolePermissions retrieves all permissions for a role
func (r *RoleRepository) GetRolePermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	query := `
		SELECT p.id, p.code, p.description, p.created_at
		FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.code
	`

	rows, err := r.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	defer closeRows(rows)

	var permissions []models.Permission
	for rows.Next() {
		var perm models.Permission
		if err := rows.Scan(&perm.ID, &perm.Code, &perm.Description, &perm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, perm)
	}
	return permissions, rows.Err()
}

// AssignPermission assigns a permission to a role
func (r *RoleRepository) AssignPermission(ctx context.Context, roleID, permissionID uint) error {
	query := `
		INSERT INTO role_permissions (role_id, permission_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, roleID, permissionID, time.Now()); err != nil {
		return fmt.Errorf("failed to assign permission: %w", err)
	}
	return nil
}

// RetainPermissions removes every grant of roleID not listed in keep
func (r *RoleRepository) RetainPermissions(ctx context.Context, roleID uint, keep []uint) error {
	query := `DELETE FROM role_permissions WHERE role_id = $1 AND NOT (permission_id = ANY($2))`
	if _, err := r.db.ExecContext(ctx, query, roleID, pq.Array(uintsToInt64(keep))); err != nil {
		return fmt.Errorf("failed to prune permissions: %w", err)
	}
	return nil
}
