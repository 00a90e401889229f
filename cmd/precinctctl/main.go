package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "precinctctl",
	Short: "Administer a precinct deployment",
	Long:  "precinctctl runs schema migrations, seeds roles, creates accounts\nand issues access tokens against the configured database.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedRolesCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(issueTokenCmd)
	rootCmd.AddCommand(genSecretCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
