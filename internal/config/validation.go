package config

import (
	"errors"
	"fmt"

	"oauthkit/pkg/oauth"
)

// Validate checks a provider configuration for the errors that would
// otherwise only surface on first use.
func (p ProviderConfig) Validate() error {
	if p.ClientID == "" {
		return errors.New("client_id is required")
	}
	if p.ClientSecret == "" {
		return errors.New("client_secret is required")
	}
	if p.TokenURL == "" {
		return errors.New("token_url is required")
	}

	switch p.Grant {
	case "", GrantAuthorizationCode:
		if p.AuthorizeURL == "" {
			return errors.New("authorize_url is required for the authorization_code grant")
		}
		if p.RedirectURI == "" {
			return errors.New("redirect_uri is required for the authorization_code grant")
		}
	case GrantPassword:
		// Owner credentials are supplied per call, nothing to validate here.
	default:
		return fmt.Errorf("unknown grant %q", p.Grant)
	}

	if _, err := oauth.ParseBearerScheme(p.BearerScheme); err != nil {
		return err
	}

	return nil
}
