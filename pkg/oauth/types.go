package oauth

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// DefaultExpiryMargin is the safety margin applied when checking token
// expiry. A token reported as not expired remains valid for at least this
// long from the moment of the check; callers must not cache the result
// longer than the margin.
const DefaultExpiryMargin = 15 * time.Second

// Command identifies one of the protocol requests a Profile knows how to
// build.
type Command string

const (
	// CommandAuthorize is the authorization redirect (a URL, never a call).
	CommandAuthorize Command = "authorize"

	// CommandAccessToken is the token exchange request.
	CommandAccessToken Command = "access_token"

	// CommandRefreshToken is the token refresh request. When no endpoint is
	// configured for it, the access_token endpoint is used.
	CommandRefreshToken Command = "refresh_token"

	// CommandProtectedResource is the default target of authenticated
	// requests when the caller supplies no URL.
	CommandProtectedResource Command = "protected_resource"
)

// Param is a single key/value pair. EndpointConfig keeps parameters as an
// ordered list so that static parameters are emitted in a stable order.
type Param struct {
	Key   string
	Value string
}

// EndpointConfig is the immutable per-command request configuration.
type EndpointConfig struct {
	// URL is the endpoint URL. A relative URL is resolved against the
	// Profile's site URL.
	URL string

	// Method is the HTTP method, GET or POST. Defaults depend on the
	// command: POST for token requests, GET otherwise.
	Method string

	// ExtraParams are static parameters merged into every request for this
	// command.
	ExtraParams []Param
}

// ClientCredentials holds the client id and secret together with their
// percent-encoded forms, which are computed once and reused in request
// bodies and the HTTP Basic authorization header (RFC 6749 section 2.3.1
// requires the encoded forms there).
type ClientCredentials struct {
	ID     string
	Secret string

	encodedID     string
	encodedSecret string
}

// NewClientCredentials builds credentials from a client id and secret.
// Both must be non-empty; absence is a configuration error, not a protocol
// error.
func NewClientCredentials(id, secret string) (ClientCredentials, error) {
	if id == "" {
		return ClientCredentials{}, &ConfigurationError{Reason: "client id is empty"}
	}
	if secret == "" {
		return ClientCredentials{}, &ConfigurationError{Reason: "client secret is empty"}
	}
	return ClientCredentials{
		ID:            id,
		Secret:        secret,
		encodedID:     url.QueryEscape(id),
		encodedSecret: url.QueryEscape(secret),
	}, nil
}

// BasicAuth returns the percent-encoded username and password for the HTTP
// Basic authorization header.
func (c ClientCredentials) BasicAuth() (username, password string) {
	return c.encodedID, c.encodedSecret
}

// NewState generates a random state value for the authorization request.
func NewState() string {
	return uuid.NewString()
}
