// Package config loads the oauthkit provider configuration.
//
// Configuration lives in ~/.config/oauthkit/config.yaml and names one
// ProviderConfig per OAuth provider the application talks to:
//
//	providers:
//	  acme:
//	    client_id: my-client
//	    client_secret: my-secret
//	    site: https://auth.acme.example.com
//	    authorize_url: /oauth/authorize
//	    token_url: /oauth/token
//	    redirect_uri: https://app.example.com/callback
//	    scope: read write
//	    auto_refresh: true
//
// Profiles are rebuilt from this configuration on every run; only frozen
// sessions are persisted.
package config
