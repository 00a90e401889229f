package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"precinct/internal/authz"
	"precinct/internal/service"
)

var seedFlags struct {
	file string
}

var seedRolesCmd = &cobra.Command{
	Use:   "seed-roles",
	Short: "Create roles and permissions from the role seed file",
	Long:  "seed-roles makes stored roles match the seed file: missing roles and\npermissions are created and each seeded role grants exactly its listed permissions.",
	RunE:  runSeedRoles,
}

func init() {
	seedRolesCmd.Flags().StringVar(&seedFlags.file, "file", "", "Role seed YAML (default SEED_ROLES_FILE)")
}

func runSeedRoles(cmd *cobra.Command, _ []string) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	path := seedFlags.file
	if path == "" {
		path = cfg.Workflow.SeedRolesFile
	}
	seed, err := authz.LoadSeed(path)
	if err != nil {
		return err
	}
	if err := service.SeedRoles(cmd.Context(), newEnv(cfg, db), seed); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d role(s) from %s\n", len(seed.Roles), path)
	return nil
}
