package authz

import (
	"context"
	"fmt"

	"precinct/internal/apperr"
)

// Principal is a snapshot of an actor's authorization state. Only active roles
// and the permissions they grant are included.
type Principal struct {
	UserID      uint
	Superuser   bool
	Active      bool
	Roles       map[Role]bool
	Permissions map[Permission]bool
}

// NewPrincipal builds a principal from role names and permission codes.
func NewPrincipal(userID uint, active, superuser bool, roles []Role, perms []Permission) *Principal {
	p := &Principal{
		UserID:      userID,
		Superuser:   superuser,
		Active:      active,
		Roles:       make(map[Role]bool, len(roles)),
		Permissions: make(map[Permission]bool, len(perms)),
	}
	for _, r := range roles {
		p.Roles[r] = true
	}
	for _, code := range perms {
		p.Permissions[code] = true
	}
	return p
}

// HasRole reports whether the principal holds r.
func (p *Principal) HasRole(r Role) bool {
	return p.Active && p.Roles[r]
}

// HasAnyRole reports whether the principal holds one of roles. Superusers
// always pass and so does any active actor when roles is empty.
func (p *Principal) HasAnyRole(roles ...Role) bool {
	if !p.Active {
		return false
	}
	if p.Superuser || len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if p.Roles[r] {
			return true
		}
	}
	return false
}

// Can reports whether one of the principal's active roles grants code.
func (p *Principal) Can(code Permission) bool {
	if !p.Active {
		return false
	}
	return p.Superuser || p.Permissions[code]
}

// RequireAnyRole is HasAnyRole returning an authorization error.
func (p *Principal) RequireAnyRole(roles ...Role) error {
	if p.HasAnyRole(roles...) {
		return nil
	}
	return apperr.Forbidden("You do not have permission to perform this action.")
}

// Require is Can returning an authorization error.
func (p *Principal) Require(code Permission) error {
	if p.Can(code) {
		return nil
	}
	return apperr.Forbidden(fmt.Sprintf("Missing permission %s.", code))
}

// IsAdmin reports whether the principal administers the system.
func (p *Principal) IsAdmin() bool {
	return p.Active && (p.Superuser || p.Roles[RoleAdmin])
}

// Source loads the current authorization state of an actor.
type Source interface {
	LoadPrincipal(ctx context.Context, userID uint) (*Principal, error)
}

// Checker resolves authorization questions against a Source. It holds no
// cache, every call reads the current roles and permissions.
type Checker struct {
	source Source
}

// NewChecker creates a checker reading from source.
func NewChecker(source Source) *Checker {
	return &Checker{source: source}
}

// Principal loads the actor's current authorization state.
func (c *Checker) Principal(ctx context.Context, userID uint) (*Principal, error) {
	p, err := c.source.LoadPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// HasAnyRole reports whether the actor holds one of roles.
func (c *Checker) HasAnyRole(ctx context.Context, userID uint, roles ...Role) (bool, error) {
	p, err := c.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.HasAnyRole(roles...), nil
}

// HasPermission reports whether the actor is granted code.
func (c *Checker) HasPermission(ctx context.Context, userID uint, code Permission) (bool, error) {
	p, err := c.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.Can(code), nil
}

// RequirePermission loads the actor and fails with an authorization error
// unless it is granted code.
func (c *Checker) RequirePermission(ctx context.Context, userID uint, code Permission) (*Principal, error) {
	p, err := c.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Require(code); err != nil {
		return nil, err
	}
	return p, nil
}

// RequireAnyRole loads the actor and fails with an authorization error unless
// it holds one of roles.
func (c *Checker) RequireAnyRole(ctx context.Context, userID uint, roles ...Role) (*Principal, error) {
	p, err := c.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.RequireAnyRole(roles...); err != nil {
		return nil, err
	}
	return p, nil
}
