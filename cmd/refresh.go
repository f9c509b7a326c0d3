package cmd

import (
	"github.com/spf13/cobra"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh <provider>",
	Short: "Refresh the stored session for a provider",
	Long: `Redeem the stored refresh token for a new access token and persist
the rotated session. Fails if the stored session carries no refresh
token.

Examples:
  oauthkit refresh acme`,
	Args: cobra.ExactArgs(1),
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	providerName := args[0]

	token, profile, store, err := loadSession(providerName)
	if err != nil {
		return err
	}

	if err := profile.Refresh(cmd.Context(), token, nil); err != nil {
		return err
	}
	if token.IsError() {
		return tokenFailure(token)
	}

	if err := persistSession(store, providerName, token); err != nil {
		return err
	}

	printSessionSummary(cmd, providerName, token)
	return nil
}
