package sessionstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"oauthkit/pkg/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(token string) oauth.FrozenSession {
	return oauth.FrozenSession{
		AccessToken:  token,
		TokenType:    "Bearer",
		RefreshToken: "rt",
		ExpiresAt:    1790000000,
		Scope:        "read",
		AutoRefresh:  true,
	}
}

func TestStoreInMemory(t *testing.T) {
	store, err := New(Config{FileMode: false})
	require.NoError(t, err)

	t.Run("get on an empty store returns nil", func(t *testing.T) {
		stored, err := store.Get("github")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		require.NoError(t, store.Put("github", testSession("abc")))

		stored, err := store.Get("github")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "github", stored.Provider)
		assert.Equal(t, "abc", stored.Session.AccessToken)
		assert.False(t, stored.UpdatedAt.IsZero())
	})

	t.Run("delete removes the session", func(t *testing.T) {
		require.NoError(t, store.Put("github", testSession("abc")))
		require.NoError(t, store.Delete("github"))

		stored, err := store.Get("github")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete("never-stored"))
	})
}

func TestStoreFileMode(t *testing.T) {
	newFileStore := func(t *testing.T) (*Store, string) {
		t.Helper()
		dir := filepath.Join(t.TempDir(), "sessions")
		store, err := New(Config{StorageDir: dir, FileMode: true})
		require.NoError(t, err)
		return store, dir
	}

	t.Run("creates the storage directory with restricted permissions", func(t *testing.T) {
		_, dir := newFileStore(t)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
		}
	})

	t.Run("session files are owner-only", func(t *testing.T) {
		store, dir := newFileStore(t)
		require.NoError(t, store.Put("github", testSession("abc")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		info, err := entries[0].Info()
		require.NoError(t, err)
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		}
	})

	t.Run("sessions survive a store restart", func(t *testing.T) {
		store, dir := newFileStore(t)
		require.NoError(t, store.Put("github", testSession("abc")))

		reopened, err := New(Config{StorageDir: dir, FileMode: true})
		require.NoError(t, err)
		stored, err := reopened.Get("github")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "abc", stored.Session.AccessToken)
		assert.Equal(t, int64(1790000000), stored.Session.ExpiresAt)
	})

	t.Run("an expired session is still returned", func(t *testing.T) {
		store, _ := newFileStore(t)
		session := testSession("abc")
		session.ExpiresAt = 1000 // long past
		require.NoError(t, store.Put("github", session))

		stored, err := store.Get("github")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "rt", stored.Session.RefreshToken)
	})

	t.Run("list returns sessions sorted by provider", func(t *testing.T) {
		store, dir := newFileStore(t)
		require.NoError(t, store.Put("github", testSession("a")))
		require.NoError(t, store.Put("acme", testSession("b")))

		reopened, err := New(Config{StorageDir: dir, FileMode: true})
		require.NoError(t, err)
		sessions, err := reopened.List()
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "acme", sessions[0].Provider)
		assert.Equal(t, "github", sessions[1].Provider)
	})

	t.Run("list skips unreadable files", func(t *testing.T) {
		store, dir := newFileStore(t)
		require.NoError(t, store.Put("github", testSession("a")))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("not json"), 0600))

		sessions, err := store.List()
		require.NoError(t, err)
		require.Len(t, sessions, 1)
	})
}
