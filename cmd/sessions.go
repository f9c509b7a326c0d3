package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	Long: `List the sessions persisted under ~/.config/oauthkit/sessions.
Token values are redacted; only a short prefix is shown.

Examples:
  oauthkit sessions
  oauthkit sessions delete acme`,
	RunE: runSessionsList,
}

// sessionsDeleteCmd removes a stored session.
var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Delete the stored session for a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	sessions, err := store.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions.")
		return nil
	}

	writer := table.NewWriter()
	writer.SetOutputMirror(cmd.OutOrStdout())
	writer.SetStyle(table.StyleLight)
	writer.AppendHeader(table.Row{"Provider", "Token", "Refresh", "Expires", "Auto-Refresh", "Updated"})

	for _, stored := range sessions {
		refresh := "no"
		if stored.Session.RefreshToken != "" {
			refresh = "yes"
		}
		autoRefresh := "no"
		if stored.Session.AutoRefresh {
			autoRefresh = "yes"
		}
		writer.AppendRow(table.Row{
			stored.Provider,
			redactToken(stored.Session.AccessToken),
			refresh,
			formatExpiry(stored.Session.ExpiresAt),
			autoRefresh,
			stored.UpdatedAt.Format(time.RFC3339),
		})
	}

	writer.Render()
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	providerName := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}

	stored, err := store.Get(providerName)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("no session for provider '%s'", providerName)
	}

	if err := store.Delete(providerName); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session for provider '%s'\n", providerName)
	return nil
}

// formatExpiry renders an epoch-seconds expiry for the sessions table.
// Expired timestamps are highlighted.
func formatExpiry(epoch int64) string {
	if epoch == 0 {
		return "never"
	}
	expiresAt := time.Unix(epoch, 0)
	formatted := expiresAt.Format(time.RFC3339)
	if expiresAt.Before(time.Now()) {
		return text.FgYellow.Sprintf("%s (expired)", formatted)
	}
	return formatted
}
