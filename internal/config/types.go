package config

import (
	"oauthkit/pkg/logging"
	"oauthkit/pkg/oauth"
)

// Config is the root configuration: a set of named OAuth providers.
type Config struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig describes one application-to-provider pairing. It carries
// everything needed to rebuild an oauth.Profile; frozen sessions only
// reference the provider by name.
type ProviderConfig struct {
	// ClientID and ClientSecret are the client credentials. Both are
	// required.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Site is the provider base URL; endpoint URLs may be relative to it.
	Site string `yaml:"site,omitempty"`

	// AuthorizeURL is the authorization endpoint. Required for the
	// authorization_code grant.
	AuthorizeURL string `yaml:"authorize_url,omitempty"`

	// TokenURL is the token endpoint. Required.
	TokenURL string `yaml:"token_url,omitempty"`

	// RefreshURL overrides the endpoint used for token refresh. Defaults
	// to the token endpoint.
	RefreshURL string `yaml:"refresh_url,omitempty"`

	// ResourceURL is the default target of authenticated requests.
	ResourceURL string `yaml:"resource_url,omitempty"`

	// Scope is the requested scope, space-separated.
	Scope string `yaml:"scope,omitempty"`

	// Grant selects the flow: "authorization_code" (default) or
	// "password".
	Grant string `yaml:"grant,omitempty"`

	// RedirectURI is the registered redirect URI for the
	// authorization_code grant.
	RedirectURI string `yaml:"redirect_uri,omitempty"`

	// BearerScheme selects token placement on authenticated requests,
	// e.g. "auth-header:Bearer" or "uri-query:access_token".
	BearerScheme string `yaml:"bearer_scheme,omitempty"`

	// OmitSecretFromParams restricts the client secret to the Basic
	// authorization header instead of duplicating it into request bodies.
	OmitSecretFromParams bool `yaml:"omit_secret_from_params,omitempty"`

	// AutoRefresh marks sessions from this provider for transparent
	// refresh on read.
	AutoRefresh bool `yaml:"auto_refresh,omitempty"`
}

// Grant values accepted in ProviderConfig.Grant.
const (
	GrantAuthorizationCode = "authorization_code"
	GrantPassword          = "password"
)

// endpoints builds the per-command endpoint configuration.
func (p ProviderConfig) endpoints() map[oauth.Command]oauth.EndpointConfig {
	endpoints := map[oauth.Command]oauth.EndpointConfig{
		oauth.CommandAccessToken: {URL: p.TokenURL},
	}
	if p.AuthorizeURL != "" {
		endpoints[oauth.CommandAuthorize] = oauth.EndpointConfig{URL: p.AuthorizeURL}
	}
	if p.RefreshURL != "" {
		endpoints[oauth.CommandRefreshToken] = oauth.EndpointConfig{URL: p.RefreshURL}
	}
	if p.ResourceURL != "" {
		endpoints[oauth.CommandProtectedResource] = oauth.EndpointConfig{URL: p.ResourceURL}
	}
	return endpoints
}

// grantStrategy maps the configured grant name to a strategy.
func (p ProviderConfig) grantStrategy() oauth.GrantStrategy {
	if p.Grant == GrantPassword {
		return oauth.PasswordGrant{}
	}
	return oauth.AuthorizationCodeGrant{RedirectURI: p.RedirectURI}
}

// BuildProfile constructs the oauth.Profile for this provider.
func (p ProviderConfig) BuildProfile() (*oauth.Profile, error) {
	return oauth.NewProfile(oauth.ProfileConfig{
		ClientID:             p.ClientID,
		ClientSecret:         p.ClientSecret,
		Site:                 p.Site,
		Endpoints:            p.endpoints(),
		Scope:                p.Scope,
		State:                oauth.NewState(),
		Grant:                p.grantStrategy(),
		BearerScheme:         p.BearerScheme,
		OmitSecretFromParams: p.OmitSecretFromParams,
		Logger:               logging.Logger(),
	})
}
