package cmd

import (
	"github.com/spf13/cobra"
)

// Token-specific flags
var (
	tokenUsername string
	tokenPassword string
	tokenParams   []string
)

// tokenCmd represents the token command, which obtains a session through
// the resource-owner password grant.
var tokenCmd = &cobra.Command{
	Use:   "token <provider>",
	Short: "Obtain a session with the password grant",
	Long: `Obtain an access token directly from the token endpoint using the
resource owner's username and password, and persist the resulting
session. The provider must be trusted with the credentials; prefer the
authorization code flow where possible.

Examples:
  oauthkit token acme --username johndoe --password A3ddj3w`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "resource owner username (required)")
	tokenCmd.Flags().StringVar(&tokenPassword, "password", "", "resource owner password (required)")
	tokenCmd.Flags().StringArrayVar(&tokenParams, "param", nil, "extra key=value parameter for the token request (repeatable)")
	_ = tokenCmd.MarkFlagRequired("username")
	_ = tokenCmd.MarkFlagRequired("password")
}

func runToken(cmd *cobra.Command, args []string) error {
	providerName := args[0]

	provider, profile, err := buildProfile(providerName)
	if err != nil {
		return err
	}

	extra, err := parseParams(tokenParams)
	if err != nil {
		return err
	}

	token, err := profile.ExchangePassword(cmd.Context(), tokenUsername, tokenPassword, extra)
	if err != nil {
		return err
	}
	if token.IsError() {
		return tokenFailure(token)
	}

	if provider.AutoRefresh {
		token.SetAutoRefresh(true)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if err := persistSession(store, providerName, token); err != nil {
		return err
	}

	printSessionSummary(cmd, providerName, token)
	return nil
}
