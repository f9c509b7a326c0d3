package oauth

import "net/url"

// GrantStrategy supplies the grant-specific parameters and validation for
// the access_token request. The set of strategies is closed: the two
// implementations are AuthorizationCodeGrant and PasswordGrant, plus the
// refresh_token grant which is built into Refresh.
type GrantStrategy interface {
	// GrantType returns the RFC 6749 grant_type value.
	GrantType() string

	tokenParams(in exchangeInput) (url.Values, error)
}

// exchangeInput carries the per-call inputs of a token exchange. Exactly
// which fields are required depends on the grant strategy.
type exchangeInput struct {
	code     string
	username string
	password string
}

// AuthorizationCodeGrant is the web-server flow of RFC 6749 section 4.1.
// The redirect URI is part of the strategy because it must be identical in
// the authorization request and the token exchange.
type AuthorizationCodeGrant struct {
	RedirectURI string
}

// GrantType implements GrantStrategy.
func (g AuthorizationCodeGrant) GrantType() string { return "authorization_code" }

func (g AuthorizationCodeGrant) tokenParams(in exchangeInput) (url.Values, error) {
	if in.code == "" {
		return nil, &ConfigurationError{Reason: "authorization code is empty"}
	}
	if g.RedirectURI == "" {
		return nil, &ConfigurationError{Reason: "redirect URI is required for the authorization_code grant"}
	}
	return url.Values{
		"code":         {in.code},
		"redirect_uri": {g.RedirectURI},
	}, nil
}

// PasswordGrant is the resource-owner password flow of RFC 6749 section
// 4.3. The owner credentials are supplied per call and never stored.
type PasswordGrant struct{}

// GrantType implements GrantStrategy.
func (g PasswordGrant) GrantType() string { return "password" }

func (g PasswordGrant) tokenParams(in exchangeInput) (url.Values, error) {
	if in.username == "" {
		return nil, &ConfigurationError{Reason: "username is empty"}
	}
	if in.password == "" {
		return nil, &ConfigurationError{Reason: "password is empty"}
	}
	return url.Values{
		"username": {in.username},
		"password": {in.password},
	}, nil
}
