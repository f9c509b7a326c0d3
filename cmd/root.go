package cmd

import (
	"errors"
	"os"

	"oauthkit/pkg/logging"
	"oauthkit/pkg/oauth"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
// These follow common conventions for scripting and automation.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates an invalid or incomplete provider configuration.
	ExitCodeConfigError = 2
	// ExitCodeAuthFailed indicates the provider rejected the grant or token request.
	ExitCodeAuthFailed = 3
)

// Global flags.
var (
	configDir string
	verbose   bool
)

// rootCmd represents the base command for the oauthkit application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "oauthkit",
	Short: "Obtain and use OAuth 2.0 access tokens from the command line",
	Long: `oauthkit drives OAuth 2.0 flows against providers configured in
~/.config/oauthkit/config.yaml: build authorization URLs, exchange codes
or resource-owner credentials for tokens, refresh sessions, and make
authenticated requests against protected resources.

Sessions are persisted per provider under ~/.config/oauthkit/sessions
and reused across invocations.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if verbose {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles
// subcommands and flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "oauthkit version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var configErr *oauth.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}

	var tokenErr *oauth.TokenError
	if errors.As(err, &tokenErr) {
		return ExitCodeAuthFailed
	}

	var serverErr *oauth.ServerError
	if errors.As(err, &serverErr) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default is $HOME/.config/oauthkit)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(authorizeCmd)
	rootCmd.AddCommand(exchangeCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(sessionsCmd)
}
