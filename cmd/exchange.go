package cmd

import (
	"fmt"
	"time"

	"oauthkit/pkg/oauth"

	"github.com/spf13/cobra"
)

// Exchange-specific flags
var (
	exchangeCode   string
	exchangeParams []string
)

// exchangeCmd represents the exchange command
var exchangeCmd = &cobra.Command{
	Use:   "exchange <provider>",
	Short: "Exchange an authorization code for a session",
	Long: `Exchange the authorization code obtained from the provider's redirect
for an access token, and persist the resulting session for later use.

Examples:
  oauthkit exchange acme --code SplxlOBeZQQYbYS6WxSbIA`,
	Args: cobra.ExactArgs(1),
	RunE: runExchange,
}

func init() {
	exchangeCmd.Flags().StringVar(&exchangeCode, "code", "", "authorization code from the redirect (required)")
	exchangeCmd.Flags().StringArrayVar(&exchangeParams, "param", nil, "extra key=value parameter for the token request (repeatable)")
	_ = exchangeCmd.MarkFlagRequired("code")
}

func runExchange(cmd *cobra.Command, args []string) error {
	providerName := args[0]

	provider, profile, err := buildProfile(providerName)
	if err != nil {
		return err
	}

	extra, err := parseParams(exchangeParams)
	if err != nil {
		return err
	}

	token, err := profile.ExchangeCode(cmd.Context(), exchangeCode, extra)
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

// printSessionSummary prints a short, redacted view of a freshly obtained
// or refreshed session. Full token values are never printed.
func printSessionSummary(cmd *cobra.Command, provider string, token *oauth.AccessToken) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session stored for provider '%s'\n", provider)
	fmt.Fprintf(out, "  Access token:  %s\n", redactToken(token.Token()))
	if token.TokenType() != "" {
		fmt.Fprintf(out, "  Token type:    %s\n", token.TokenType())
	}
	if token.RefreshToken() != "" {
		fmt.Fprintf(out, "  Refresh token: %s\n", redactToken(token.RefreshToken()))
	}
	if !token.ExpiresAt().IsZero() {
		fmt.Fprintf(out, "  Expires at:    %s\n", token.ExpiresAt().Format(time.RFC3339))
	}
	if token.Scope() != "" {
		fmt.Fprintf(out, "  Scope:         %s\n", token.Scope())
	}
}
