package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"precinct/internal/auth"
	"precinct/internal/authz"
	"precinct/internal/service"
	"precinct/pkg/validator"
)

var createUserFlags struct {
	username   string
	email      string
	password   string
	firstName  string
	lastName   string
	nationalID string
	phone      string
	roles      []string
	superuser  bool
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an active account with the given roles",
	RunE:  runCreateUser,
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&createUserFlags.username, "username", "", "Username (required)")
	f.StringVar(&createUserFlags.email, "email", "", "Email address (required)")
	f.StringVar(&createUserFlags.password, "password", "", "Initial password (required)")
	f.StringVar(&createUserFlags.firstName, "first-name", "", "First name")
	f.StringVar(&createUserFlags.lastName, "last-name", "", "Last name")
	f.StringVar(&createUserFlags.nationalID, "national-id", "", "National id (required)")
	f.StringVar(&createUserFlags.phone, "phone", "", "Phone number")
	f.StringSliceVar(&createUserFlags.roles, "role", nil, "Role to assign, repeatable")
	f.BoolVar(&createUserFlags.superuser, "superuser", false, "Grant every permission")

	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
	_ = createUserCmd.MarkFlagRequired("national-id")
}

func parseRoles(names []string) ([]authz.Role, error) {
	roles := make([]authz.Role, 0, len(names))
	for _, name := range names {
		role := authz.Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role %q", name)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	roles, err := parseRoles(createUserFlags.roles)
	if err != nil {
		return err
	}
	if err := validator.ValidateEmail(createUserFlags.email); err != nil {
		return err
	}

	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	accounts := service.NewAccountService(newEnv(cfg, db), auth.NewService(&cfg.JWT))
	user, err := accounts.CreateUser(cmd.Context(), service.NewUser{
		Username:   createUserFlags.username,
		Email:      validator.SanitizeEmail(createUserFlags.email),
		Password:   createUserFlags.password,
		FirstName:  validator.SanitizeString(createUserFlags.firstName),
		LastName:   validator.SanitizeString(createUserFlags.lastName),
		NationalID: createUserFlags.nationalID,
		Phone:      createUserFlags.phone,
		Superuser:  createUserFlags.superuser,
		Roles:      roles,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s with id %d\n", user.Username, user.ID)
	return nil
}
