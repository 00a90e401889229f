package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"precinct/internal/auth"
	"precinct/internal/repository"
)

var issueTokenFlags struct {
	login string
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Issue an access token for an existing account",
	RunE:  runIssueToken,
}

func init() {
	issueTokenCmd.Flags().StringVar(&issueTokenFlags.login, "login", "", "Username, email, phone or national id (required)")
	_ = issueTokenCmd.MarkFlagRequired("login")
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	cfg, db, err := connect()
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := repository.NewUserRepository(db.DB).GetByLogin(cmd.Context(), issueTokenFlags.login)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return fmt.Errorf("user %s is inactive", user.Username)
	}

	token, expiresAt, err := auth.NewService(&cfg.JWT).GenerateToken(user.ID, user.Username)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(cmd.ErrOrStderr(), "Expires %s\n", expiresAt.Format("2006-01-02 15:04:05"))
	return nil
}
