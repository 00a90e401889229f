package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

var genSecretFlags struct {
	bytes int
}

var genSecretCmd = &cobra.Command{
	Use:   "gen-secret",
	Short: "Print a random JWT signing secret for the .env file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		secret, err := newSecret(genSecretFlags.bytes)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "JWT_SECRET=%s\n", secret)
		return nil
	},
}

func init() {
	genSecretCmd.Flags().IntVar(&genSecretFlags.bytes, "bytes", 48, "Random bytes in the secret")
}

func newSecret(n int) (string, error) {
	if n < 32 {
		return "", fmt.Errorf("a secret needs at least 32 bytes, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
