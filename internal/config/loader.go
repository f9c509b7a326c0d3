package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"oauthkit/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/oauthkit"
	configFileName = "config.yaml"
)

// DefaultConfigPathOrPanic returns the default configuration directory.
func DefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory. The
// directory should contain config.yaml; a missing file yields an empty
// configuration rather than an error.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := Config{Providers: map[string]ProviderConfig{}}

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		// config malformed
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if config.Providers == nil {
		config.Providers = map[string]ProviderConfig{}
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// Provider looks up a provider by name and validates it.
func (c Config) Provider(name string) (ProviderConfig, error) {
	provider, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown provider %q", name)
	}
	if err := provider.Validate(); err != nil {
		return ProviderConfig{}, fmt.Errorf("provider %q: %w", name, err)
	}
	return provider, nil
}
