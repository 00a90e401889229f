package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"precinct/internal/apperr"
	"precinct/internal/auth"
	"precinct/internal/authz"
	"precinct/internal/models"
	"precinct/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
)

// AccountService handles login, registration and role administration
type AccountService struct {
	env     Env
	authSvc *auth.Service
}

// NewAccountService creates a new account service
func NewAccountService(env Env, authSvc *auth.Service) *AccountService {
	return &AccountService{env: env, authSvc: authSvc}
}

// NewUser describes an account to create
type NewUser struct {
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	NationalID string
	Phone      string
	Superuser  bool
	Roles      []authz.Role
}

// LoginResult is an issued access token and the user it belongs to
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login authenticates by username, email, phone or national id and issues
// an access token
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.env.store().Users.GetByLogin(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.authSvc.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("User logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates a citizen account holding the base user role
func (s *AccountService) Register(ctx context.Context, in NewUser) (*models.User, error) {
	in.Superuser = false
	in.Roles = []authz.Role{authz.RoleBaseUser}
	return s.CreateUser(ctx, in)
}

// CreateUser creates an active account and assigns roles to it
func (s *AccountService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	passwordHash, err := s.authSvc.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		NationalID:   in.NationalID,
		Phone:        in.Phone,
		IsActive:     true,
		IsSuperuser:  in.Superuser,
	}
	err = s.env.inTx(ctx, func(st *repository.Store) error {
		if err := st.Users.Create(ctx, user); err != nil {
			return err
		}
		for _, name := range in.Roles {
			role, err := st.Roles.GetByName(ctx, string(name))
			if err != nil {
				return err
			}
			if err := st.Users.AssignRole(ctx, user.ID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("User created", "user_id", user.ID, "roles", in.Roles)
	return user, nil
}

// Me returns the actor's account with its roles
func (s *AccountService) Me(ctx context.Context, actorID uint) (*models.UserWithRoles, error) {
	st := s.env.store()
	user, err := st.Users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	roles, err := st.Users.GetUserRoles(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &models.UserWithRoles{User: *user, Roles: roles}, nil
}

// ListUsers returns a page of accounts
func (s *AccountService) ListUsers(ctx context.Context, actorID uint, limit, offset int) ([]models.User, error) {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermManageUsers); err != nil {
		return nil, err
	}
	return s.env.store().Users.GetAll(ctx, limit, offset)
}

// SetActive activates or deactivates an account. A deactivated actor fails
// every authorization check from its next request on.
func (s *AccountService) SetActive(ctx context.Context, actorID, userID uint, active bool) error {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermManageUsers); err != nil {
		return err
	}
	if actorID == userID && !active {
		return apperr.Precondition("You cannot deactivate your own account.")
	}
	if err := s.env.store().Users.UpdateActiveStatus(ctx, userID, active); err != nil {
		return err
	}
	slog.Info("User status changed", "user_id", userID, "active", active, "actor_id", actorID)
	return nil
}

// ListRoles returns every role
func (s *AccountService) ListRoles(ctx context.Context, actorID uint) ([]models.Role, error) {
	if _, err := s.env.actor(ctx, actorID); err != nil {
		return nil, err
	}
	return s.env.store().Roles.GetAll(ctx)
}

// AssignRole grants a role to a user
func (s *AccountService) AssignRole(ctx context.Context, actorID, userID uint, role authz.Role) error {
	return s.changeRole(ctx, actorID, userID, role, func(st *repository.Store, roleID uint) error {
		return st.Users.AssignRole(ctx, userID, roleID)
	})
}

// RemoveRole takes a role away from a user
func (s *AccountService) RemoveRole(ctx context.Context, actorID, userID uint, role authz.Role) error {
	return s.changeRole(ctx, actorID, userID, role, func(st *repository.Store, roleID uint) error {
		return st.Users.RemoveRole(ctx, userID, roleID)
	})
}

func (s *AccountService) changeRole(ctx context.Context, actorID, userID uint, role authz.Role, change func(st *repository.Store, roleID uint) error) error {
	if _, err := s.env.Checker.RequirePermission(ctx, actorID, authz.PermManageRoles); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.FieldValidation("role", fmt.Sprintf("Unknown role %q.", role))
	}

	err := s.env.inTx(ctx, func(st *repository.Store) error {
		if _, err := st.Users.GetByID(ctx, userID); err != nil {
			return err
		}
		r, err := st.Roles.GetByName(ctx, string(role))
		if err != nil {
			return err
		}
		return change(st, r.ID)
	})
	if err != nil {
		return err
	}

	slog.Info("User roles changed", "user_id", userID, "role", role, "actor_id", actorID)
	return nil
}

// SeedRoles makes the stored roles and permissions match seed: every known
// permission code exists, every seeded role exists and grants exactly its
// seeded permissions.
func SeedRoles(ctx context.Context, env Env, seed *authz.Seed) error {
	return env.inTx(ctx, func(st *repository.Store) error {
		permIDs := make(map[authz.Permission]uint, len(authz.AllPermissions))
		for code, description := range authz.AllPermissions {
			id, err := st.Roles.UpsertPermission(ctx, string(code), description)
			if err != nil {
				return err
			}
			permIDs[code] = id
		}

		for _, r := range seed.Roles {
			roleID, err := st.Roles.Upsert(ctx, string(r.Name), r.Description)
			if err != nil {
				return err
			}
			keep := make([]uint, 0, len(r.Permissions))
			for _, code := range r.Permissions {
				if err := st.Roles.AssignPermission(ctx, roleID, permIDs[code]); err != nil {
					return err
				}
				keep = append(keep, permIDs[code])
			}
			if err := st.Roles.RetainPermissions(ctx, roleID, keep); err != nil {
				return err
			}
			slog.Debug("Seeded role", "role", r.Name, "permissions", len(keep))
		}
		return nil
	})
}
