package cmd

import (
	"strings"
	"testing"
	"time"

	"oauthkit/pkg/oauth"
)

func TestRunSessionsList(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		withTestConfig(t, "providers: {}\n")

		cmd, out, _ := newTestCommand()
		if err := runSessionsList(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No stored sessions.") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})

	t.Run("lists sessions with redacted tokens", func(t *testing.T) {
		withTestConfig(t, "providers: {}\n")
		storeTestSession(t, "acme", oauth.FrozenSession{
			AccessToken:  "2YotnFZFEjr1zCsicMWpAA",
			RefreshToken: "tGzv3JOkF0XG5Qx2TlKWIA",
			ExpiresAt:    time.Now().Add(time.Hour).Unix(),
			AutoRefresh:  true,
		})
		storeTestSession(t, "widgets", oauth.FrozenSession{
			AccessToken: "widget-token-value",
		})

		cmd, out, _ := newTestCommand()
		if err := runSessionsList(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := out.String()
		for _, want := range []string{"acme", "widgets", "2YotnF...", "never"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
		for _, secret := range []string{"2YotnFZFEjr1zCsicMWpAA", "tGzv3JOkF0XG5Qx2TlKWIA", "widget-token-value"} {
			if strings.Contains(output, secret) {
				t.Errorf("full token value %q leaked into output", secret)
			}
		}
	})
}

func TestRunSessionsDelete(t *testing.T) {
	t.Run("deletes a stored session", func(t *testing.T) {
		withTestConfig(t, "providers: {}\n")
		storeTestSession(t, "acme", oauth.FrozenSession{AccessToken: "tok"})

		cmd, out, _ := newTestCommand()
		if err := runSessionsDelete(cmd, []string{"acme"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "Deleted session for provider 'acme'") {
			t.Errorf("unexpected output: %s", out.String())
		}

		store, err := openStore()
		if err != nil {
			t.Fatalf("opening store: %v", err)
		}
		stored, err := store.Get("acme")
		if err != nil {
			t.Fatalf("reading session: %v", err)
		}
		if stored != nil {
			t.Error("expected the session to be gone")
		}
	})

	t.Run("missing session is an error", func(t *testing.T) {
		withTestConfig(t, "providers: {}\n")

		cmd, _, _ := newTestCommand()
		if err := runSessionsDelete(cmd, []string{"acme"}); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestFormatExpiry(t *testing.T) {
	if got := formatExpiry(0); got != "never" {
		t.Errorf("formatExpiry(0) = %q, want never", got)
	}

	future := time.Now().Add(time.Hour).Unix()
	if got := formatExpiry(future); strings.Contains(got, "expired") {
		t.Errorf("future expiry marked expired: %q", got)
	}

	past := time.Now().Add(-time.Hour).Unix()
	if got := formatExpiry(past); !strings.Contains(got, "expired") {
		t.Errorf("past expiry not marked: %q", got)
	}
}
