package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oauthkit/pkg/oauth"
)

// storeTestSession persists a frozen session for the provider so commands
// that need an existing session can run.
func storeTestSession(t *testing.T, provider string, session oauth.FrozenSession) {
	t.Helper()
	store, err := openStore()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := store.Put(provider, session); err != nil {
		t.Fatalf("storing session: %v", err)
	}
}

func TestRunRequest(t *testing.T) {
	t.Run("carries the stored bearer token", func(t *testing.T) {
		var sawAuthorization string
		resource := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawAuthorization = r.Header.Get("Authorization")
			fmt.Fprint(w, `{"user":"johndoe"}`)
		}))
		t.Cleanup(resource.Close)

		server := newTokenServer(t, http.StatusOK, `{}`)
		withTestConfig(t, serverConfig(server.URL))
		storeTestSession(t, "acme", oauth.FrozenSession{
			AccessToken: "stored-token",
			TokenType:   "bearer",
		})

		cmd, out, _ := newTestCommand()
		if err := runRequest(cmd, []string{"acme", resource.URL + "/user"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sawAuthorization != "OAuth stored-token" {
			t.Errorf("Authorization = %q, want %q", sawAuthorization, "OAuth stored-token")
		}
		if !strings.Contains(out.String(), `"user":"johndoe"`) {
			t.Errorf("response body not forwarded: %s", out.String())
		}
	})

	t.Run("refreshes an expired auto-refresh session and persists it", func(t *testing.T) {
		tokenServer := newTokenServer(t, http.StatusOK,
			`{"access_token":"fresh-token","token_type":"bearer","expires_in":3600,"refresh_token":"next-refresh"}`)

		var sawAuthorization string
		resource := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawAuthorization = r.Header.Get("Authorization")
			fmt.Fprint(w, "ok")
		}))
		t.Cleanup(resource.Close)

		withTestConfig(t, serverConfig(tokenServer.URL)+"    auto_refresh: true\n")
		storeTestSession(t, "acme", oauth.FrozenSession{
			AccessToken:  "stale-token",
			RefreshToken: "old-refresh",
			ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
			AutoRefresh:  true,
		})

		cmd, _, _ := newTestCommand()
		if err := runRequest(cmd, []string{"acme", resource.URL}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sawAuthorization != "OAuth fresh-token" {
			t.Errorf("Authorization = %q, want the refreshed token", sawAuthorization)
		}

		store, err := openStore()
		if err != nil {
			t.Fatalf("opening store: %v", err)
		}
		stored, err := store.Get("acme")
		if err != nil {
			t.Fatalf("reading session: %v", err)
		}
		if stored.Session.AccessToken != "fresh-token" {
			t.Errorf("persisted token = %q, want fresh-token", stored.Session.AccessToken)
		}
		if stored.Session.RefreshToken != "next-refresh" {
			t.Errorf("persisted refresh token = %q, want next-refresh", stored.Session.RefreshToken)
		}
	})

	t.Run("missing session is an error", func(t *testing.T) {
		server := newTokenServer(t, http.StatusOK, `{}`)
		withTestConfig(t, serverConfig(server.URL))

		cmd, _, _ := newTestCommand()
		if err := runRequest(cmd, []string{"acme", "https://api.example.com"}); err == nil {
			t.Error("expected an error without a stored session")
		}
	})

	t.Run("error status is reported after the body", func(t *testing.T) {
		resource := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "denied")
		}))
		t.Cleanup(resource.Close)

		server := newTokenServer(t, http.StatusOK, `{}`)
		withTestConfig(t, serverConfig(server.URL))
		storeTestSession(t, "acme", oauth.FrozenSession{AccessToken: "stored-token"})

		cmd, out, _ := newTestCommand()
		err := runRequest(cmd, []string{"acme", resource.URL})
		if err == nil {
			t.Fatal("expected an error for a 403 response")
		}
		if !strings.Contains(out.String(), "denied") {
			t.Errorf("expected body to be forwarded, got %s", out.String())
		}
	})
}

func TestRunRefresh(t *testing.T) {
	t.Run("rotates and persists the session", func(t *testing.T) {
		server := newTokenServer(t, http.StatusOK,
			`{"access_token":"rotated","token_type":"bearer","expires_in":3600,"refresh_token":"rotated-refresh"}`)
		withTestConfig(t, serverConfig(server.URL))
		storeTestSession(t, "acme", oauth.FrozenSession{
			AccessToken:  "old",
			RefreshToken: "old-refresh",
		})

		cmd, out, _ := newTestCommand()
		if err := runRefresh(cmd, []string{"acme"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(out.String(), "Session stored for provider 'acme'") {
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
		if stored.Session.AccessToken != "rotated" {
			t.Errorf("persisted token = %q, want rotated", stored.Session.AccessToken)
		}
	})

	t.Run("fails without a refresh token", func(t *testing.T) {
		server := newTokenServer(t, http.StatusOK, `{}`)
		withTestConfig(t, serverConfig(server.URL))
		storeTestSession(t, "acme", oauth.FrozenSession{AccessToken: "only-access"})

		cmd, _, _ := newTestCommand()
		err := runRefresh(cmd, []string{"acme"})
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}
