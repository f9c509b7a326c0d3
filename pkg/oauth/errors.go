package oauth

import (
	"errors"
	"fmt"
)

// maxErrorBodyLen bounds response bodies embedded in error messages so that
// errors stay safe to log.
const maxErrorBodyLen = 200

// ErrRefreshUnavailable is returned when a refresh is attempted on a token
// that has no refresh token.
var ErrRefreshUnavailable = errors.New("no refresh token available")

// ConfigurationError indicates the Profile or a request was misconfigured.
// It is fatal and never retried.
type ConfigurationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "oauth: configuration error: " + e.Reason
}

// TransportError indicates that no response was received from the server.
// The in-flight call failed; token state is left untouched.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return "oauth: no response received: " + e.Err.Error()
}

// Unwrap returns the underlying transport failure.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError indicates the server responded with a failure status.
// Body holds the full response body; it is truncated in the error message.
type ServerError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("oauth: server returned status %d: %s", e.StatusCode, truncateBody(e.Body))
}

// ProtocolError indicates a success response whose body could not be decoded
// as JSON or as a URL-encoded form.
type ProtocolError struct {
	// Context labels the operation that produced the response,
	// e.g. "access_token" or "refresh_token".
	Context string
	Body    string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("oauth: %s: malformed response body: %q", e.Context, truncateBody(e.Body))
}

// UnsupportedContentTypeError indicates a form-body bearer injection was
// attempted on a request whose body is not form-encoded. Injecting anyway
// would corrupt the body, so this fails loudly.
type UnsupportedContentTypeError struct {
	ContentType string
}

// Error implements the error interface.
func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("oauth: cannot inject token into body with content type %q", e.ContentType)
}

// TokenError is the structured failure defined by RFC 6749 section 5.2.
// It is never returned from an exchange or refresh call; the fields are
// captured on the resulting AccessToken instead, because an invalid_grant
// response is a routine outcome rather than a systemic fault. LastError
// materializes one for callers that want an error value.
type TokenError struct {
	Code        string
	Description string
	URI         string
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth: server returned error %q: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: server returned error %q", e.Code)
}

// truncateBody bounds a response body for inclusion in error messages.
func truncateBody(body string) string {
	if len(body) > maxErrorBodyLen {
		return body[:maxErrorBodyLen] + "..."
	}
	return body
}
