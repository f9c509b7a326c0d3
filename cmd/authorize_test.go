package cmd

import (
	"net/url"
	"strings"
	"testing"
)

const authorizeTestConfig = `
providers:
  acme:
    client_id: my-client
    client_secret: my-secret
    site: https://auth.acme.example.com
    authorize_url: /oauth/authorize
    token_url: /oauth/token
    redirect_uri: https://app.example.com/callback
    scope: read
`

func TestRunAuthorize(t *testing.T) {
	withTestConfig(t, authorizeTestConfig)

	t.Run("prints the authorization URL", func(t *testing.T) {
		cmd, out, _ := newTestCommand()

		if err := runAuthorize(cmd, []string{"acme"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		printed := strings.TrimSpace(out.String())
		parsed, err := url.Parse(printed)
		if err != nil {
			t.Fatalf("output is not a URL: %v", err)
		}

		if parsed.Host != "auth.acme.example.com" || parsed.Path != "/oauth/authorize" {
			t.Errorf("unexpected endpoint: %s", printed)
		}

		query := parsed.Query()
		if query.Get("response_type") != "code" {
			t.Errorf("response_type = %q, want code", query.Get("response_type"))
		}
		if query.Get("client_id") != "my-client" {
			t.Errorf("client_id = %q, want my-client", query.Get("client_id"))
		}
		if query.Get("redirect_uri") != "https://app.example.com/callback" {
			t.Errorf("redirect_uri = %q", query.Get("redirect_uri"))
		}
		if strings.Contains(printed, "my-secret") {
			t.Error("authorization URL must not carry the client secret")
		}
	})

	t.Run("appends extra parameters", func(t *testing.T) {
		originalParams := authorizeParams
		defer func() { authorizeParams = originalParams }()
		authorizeParams = []string{"prompt=consent"}

		cmd, out, _ := newTestCommand()
		if err := runAuthorize(cmd, []string{"acme"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(out.String(), "prompt=consent") {
			t.Errorf("expected prompt=consent in %s", out.String())
		}
	})

	t.Run("unknown provider fails", func(t *testing.T) {
		cmd, _, _ := newTestCommand()
		if err := runAuthorize(cmd, []string{"nope"}); err == nil {
			t.Error("expected an error")
		}
	})
}
