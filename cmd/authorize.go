package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// Authorize-specific flags
var authorizeParams []string

// authorizeCmd represents the authorize command
var authorizeCmd = &cobra.Command{
	Use:   "authorize <provider>",
	Short: "Print the authorization URL for a provider",
	Long: `Build the authorization endpoint URL the resource owner must visit
to approve access. After approval the provider redirects back to the
configured redirect_uri with a 'code' parameter; pass that code to
'oauthkit exchange'.

Examples:
  oauthkit authorize acme
  oauthkit authorize acme --param prompt=consent --param login_hint=me@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthorize,
}

func init() {
	authorizeCmd.Flags().StringArrayVar(&authorizeParams, "param", nil, "extra key=value parameter for the authorization URL (repeatable)")
}

func runAuthorize(cmd *cobra.Command, args []string) error {
	_, profile, err := buildProfile(args[0])
	if err != nil {
		return err
	}

	extra, err := parseParams(authorizeParams)
	if err != nil {
		return err
	}

	authURL, err := profile.AuthorizeURL(extra)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), authURL)
	return nil
}

// parseParams converts repeated key=value flags into url.Values.
func parseParams(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := url.Values{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}
