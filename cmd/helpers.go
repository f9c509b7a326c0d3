package cmd

import (
	"fmt"
	"path/filepath"

	"oauthkit/internal/config"
	"oauthkit/internal/sessionstore"
	"oauthkit/pkg/oauth"
)

// redactedTokenLen is how many leading characters of a token are shown in
// output. Full token values never appear in tables or logs.
const redactedTokenLen = 6

// loadProvider resolves a provider by name from the configuration.
func loadProvider(name string) (config.ProviderConfig, error) {
	dir := configDir
	if dir == "" {
		dir = config.DefaultConfigPathOrPanic()
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return config.ProviderConfig{}, err
	}
	return cfg.Provider(name)
}

// buildProfile resolves a provider and constructs its protocol profile.
func buildProfile(name string) (config.ProviderConfig, *oauth.Profile, error) {
	provider, err := loadProvider(name)
	if err != nil {
		return config.ProviderConfig{}, nil, err
	}

	profile, err := provider.BuildProfile()
	if err != nil {
		return config.ProviderConfig{}, nil, err
	}
	return provider, profile, nil
}

// openStore opens the file-backed session store. A non-default --config
// directory keeps its sessions alongside the config file.
func openStore() (*sessionstore.Store, error) {
	storeCfg := sessionstore.Config{FileMode: true}
	if configDir != "" {
		storeCfg.StorageDir = filepath.Join(configDir, "sessions")
	}
	return sessionstore.New(storeCfg)
}

// loadSession thaws the stored session for a provider, bound to a freshly
// built profile.
func loadSession(name string) (*oauth.AccessToken, *oauth.Profile, *sessionstore.Store, error) {
	provider, profile, err := buildProfile(name)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}

	stored, err := store.Get(name)
	if err != nil {
		return nil, nil, nil, err
	}
	if stored == nil {
		return nil, nil, nil, fmt.Errorf("no session for provider '%s'. Run: oauthkit exchange %s --code <code>", name, name)
	}

	token := oauth.Thaw(stored.Session, profile)
	if provider.AutoRefresh {
		token.SetAutoRefresh(true)
	}
	return token, profile, store, nil
}

// persistSession freezes the token and writes it back under the provider
// name. Freezing clears the dirty flag.
func persistSession(store *sessionstore.Store, provider string, token *oauth.AccessToken) error {
	return store.Put(provider, token.Freeze())
}

// persistIfChanged writes the session back only when a refresh or exchange
// actually mutated it.
func persistIfChanged(store *sessionstore.Store, provider string, token *oauth.AccessToken) error {
	if !token.Changed() {
		return nil
	}
	return persistSession(store, provider, token)
}

// redactToken returns a short prefix of the token suitable for display.
func redactToken(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= redactedTokenLen {
		return "******"
	}
	return token[:redactedTokenLen] + "..."
}

// tokenFailure converts a token-level protocol error captured on the
// session into a command error so the provider's response reaches the user.
func tokenFailure(token *oauth.AccessToken) error {
	return &oauth.TokenError{
		Code:        token.ErrorCode(),
		Description: token.ErrorDescription(),
		URI:         token.ErrorURI(),
	}
}
