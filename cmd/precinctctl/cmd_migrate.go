package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"precinct/internal/database"
)

var migrateFlags struct {
	dir string
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *database.MigrationExecutor) error {
			n, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *database.MigrationExecutor) error {
			version, err := m.Down(cmd.Context())
			if err != nil {
				return err
			}
			if version == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", version)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and when they were applied",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(m *database.MigrationExecutor) error {
			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tTITLE\tAPPLIED")
			for _, s := range statuses {
				applied := "pending"
				if s.AppliedAt != nil {
					applied = s.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, s.Title, applied)
			}
			return tw.Flush()
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateFlags.dir, "dir", "", "Migrations directory (default DB_MIGRATIONS_DIR)")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func withMigrator(fn func(m *database.MigrationExecutor) error) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	dir := migrateFlags.dir
	if dir == "" {
		dir = cfg.Database.MigrationsDir
	}
	return fn(database.NewMigrationExecutor(db.DB, dir))
}
