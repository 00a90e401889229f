package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"precinct/internal/auth"
	"precinct/internal/authz"
	"precinct/internal/config"
	"precinct/internal/models"
	"precinct/internal/service"
	"precinct/internal/workflow"
)

// FixturePassword is the password of every fixture user
const FixturePassword = "correct-horse-battery"

// Fixtures holds one active user per role, on a database seeded with the
// shipped role to permission assignment
type Fixtures struct {
	DB        *sql.DB
	Env       service.Env
	Auth      *auth.Service
	Admin     *models.User
	Chief     *models.User
	Captain   *models.User
	Sergeant  *models.User
	Detective *models.User
	Officer   *models.User
	Cadet     *models.User
	Coroner   *models.User
	Judge     *models.User
	Citizen   *models.User
}

// SetupFixtures seeds roles and creates the fixture users
func SetupFixtures(t *testing.T, db *sql.DB) *Fixtures {
	t.Helper()
	ctx := context.Background()

	seed, err := authz.LoadSeed(RolesFile())
	if err != nil {
		t.Fatalf("Failed to load role seed: %v", err)
	}

	f := &Fixtures{
		DB:   db,
		Env:  service.NewEnv(db, workflow.DefaultRules(), nil),
		Auth: NewAuthService(),
	}
	if err := service.SeedRoles(ctx, f.Env, seed); err != nil {
		t.Fatalf("Failed to seed roles: %v", err)
	}

	f.Admin = f.CreateUser(t, "admin", authz.RoleAdmin)
	f.Chief = f.CreateUser(t, "chief", authz.RoleChief)
	f.Captain = f.CreateUser(t, "captain", authz.RoleCaptain)
	f.Sergeant = f.CreateUser(t, "sergeant", authz.RoleSergeant)
	f.Detective = f.CreateUser(t, "detective", authz.RoleDetective)
	f.Officer = f.CreateUser(t, "officer", authz.RoleOfficer)
	f.Cadet = f.CreateUser(t, "cadet", authz.RoleCadet)
	f.Coroner = f.CreateUser(t, "coroner", authz.RoleCoroner)
	f.Judge = f.CreateUser(t, "judge", authz.RoleJudge)
	f.Citizen = f.CreateUser(t, "citizen", authz.RoleBaseUser)
	return f
}

// CreateUser creates an active user named username holding roles
func (f *Fixtures) CreateUser(t *testing.T, username string, roles ...authz.Role) *models.User {
	t.Helper()

	accounts := service.NewAccountService(f.Env, f.Auth)
	user, err := accounts.CreateUser(context.Background(), service.NewUser{
		Username:   username,
		Email:      username + "@precinct.test",
		Password:   FixturePassword,
		FirstName:  strings.ToUpper(username[:1]) + username[1:],
		LastName:   "Fixture",
		NationalID: fmt.Sprintf("NID-%s", strings.ToUpper(username)),
		Roles:      roles,
	})
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// NewAuthService returns an auth service signing with TestSecret
func NewAuthService() *auth.Service {
	return auth.NewService(&config.JWTConfig{
		Secret:     TestSecret,
		Issuer:     "precinct-test",
		Expiration: time.Hour,
	})
}
