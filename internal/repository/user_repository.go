package repository

import (
	"context"
	"fmt"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/authz"
	"precinct/internal/database"
	"precinct/internal/models"
)

var (
	ErrUserNotFound = apperr.NotFound("User")
	ErrUserExists   = apperr.Conflict("A user with this username, email, phone or national id already exists.")
)

const userColumns = `u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name,
		       COALESCE(u.national_id, ''), u.phone, u.is_active, u.is_verified, u.is_superuser,
		       u.created_at, u.updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.NationalID,
		&user.Phone,
		&user.IsActive,
		&user.IsVerified,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, national_id, phone,
		                   is_active, is_verified, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.NationalID,
		user.Phone,
		user.IsActive,
		user.IsVerified,
		user.IsSuperuser,
		now,
		now,
	).Scan(&user.ID)

	if database.IsUniqueViolation(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByLogin retrieves a user by any of its login identifiers: username,
// email, phone or national id.
func (r *UserRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.username = $1 OR u.email = $1 OR u.national_id = $1 OR (u.phone <> '' AND u.phone = $1)
		ORDER BY u.id
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, identifier))
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetAll retrieves users with pagination
func (r *UserRepository) GetAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u ORDER BY u.id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// GetUsersByRole retrieves all active users holding a role
func (r *UserRepository) GetUsersByRole(ctx context.Context, role authz.Role) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		INNER JOIN user_roles ur ON u.id = ur.user_id
		INNER JOIN roles r ON ur.role_id = r.id
		WHERE r.name = $1 AND r.is_active AND u.is_active
		ORDER BY u.id
	`

	rows, err := r.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to get users by role: %w", err)
	}
	defer closeRows(rows)

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateActiveStatus activates or deactivates a user
func (r *UserRepository) UpdateActiveStatus(ctx context.Context, userID uint, isActive bool) error {
	query := `UPDATE users SET is_active = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, isActive, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return expectOneRow(res, "User")
}

// GetUserRoles retrieves all roles for a user
func (r *UserRepository) GetUserRoles(ctx context.Context, userID uint) ([]models.Role, error) {
	query := `
		SELECT r.id, r.name, r.description, r.is_active, r.created_at, r.updated_at
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
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

// AssignRole assigns a role to a user. Assigning a held role is a no-op.
func (r *UserRepository) AssignRole(ctx context.Context, userID, roleID uint) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, roleID, time.Now()); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// RemoveRole removes a role from a user
func (r *UserRepository) RemoveRole(ctx context.Context, userID, roleID uint) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

// LoadPrincipal reads the user's flags, active roles and the permissions those
// roles grant.
func (r *UserRepository) LoadPrincipal(ctx context.Context, userID uint) (*authz.Principal, error) {
	var active, superuser bool
	err := r.db.QueryRowContext(ctx,
		`SELECT is_active, is_superuser FROM users WHERE id = $1`, userID,
	).Scan(&active, &superuser)
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	roles, err := r.stringColumn(ctx, `
		SELECT r.name
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND r.is_active
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	codes, err := r.stringColumn(ctx, `
		SELECT DISTINCT p.code
		FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		INNER JOIN roles r ON rp.role_id = r.id
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND r.is_active
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	roleNames := make([]authz.Role, len(roles))
	for i, name := range roles {
		roleNames[i] = authz.Role(name)
	}
	perms := make([]authz.Permission, len(codes))
	for i, code := range codes {
		perms[i] = authz.Permission(code)
	}
	return authz.NewPrincipal(userID, active, superuser, roleNames, perms), nil
}

func (r *UserRepository) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
