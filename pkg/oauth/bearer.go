package oauth

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Bearer scheme kinds. The scheme selects where an outgoing request carries
// the access token (RFC 6750 defines all three placements).
const (
	// SchemeAuthHeader places the token in the Authorization header.
	SchemeAuthHeader = "auth-header"

	// SchemeURIQuery appends the token to the request query string.
	SchemeURIQuery = "uri-query"

	// SchemeFormBody appends the token to a form-encoded request body.
	SchemeFormBody = "form-body"
)

const (
	// DefaultRealm is the Authorization header prefix when the auth-header
	// scheme carries no explicit realm.
	DefaultRealm = "OAuth"

	// DefaultTokenField is the parameter name used by the uri-query and
	// form-body schemes when no field is configured.
	DefaultTokenField = "oauth_token"

	formContentType = "application/x-www-form-urlencoded"
)

// BearerScheme is a stateless strategy that mutates an outgoing request to
// carry a token. It is configured from a "kind:option" identifier, e.g.
// "auth-header:Bearer" or "uri-query:access_token".
type BearerScheme struct {
	Kind   string
	Option string
}

// ParseBearerScheme parses a scheme identifier. An empty identifier selects
// the auth-header scheme. Unknown kinds fail loudly; misconfigured
// credential placement is a security bug, not something to ignore.
func ParseBearerScheme(s string) (BearerScheme, error) {
	if s == "" {
		return BearerScheme{Kind: SchemeAuthHeader}, nil
	}

	kind, option, _ := strings.Cut(s, ":")
	switch kind {
	case SchemeAuthHeader, SchemeURIQuery, SchemeFormBody:
		return BearerScheme{Kind: kind, Option: option}, nil
	default:
		return BearerScheme{}, &ConfigurationError{Reason: fmt.Sprintf("unknown bearer scheme %q", kind)}
	}
}

// String returns the scheme identifier.
func (s BearerScheme) String() string {
	if s.Option == "" {
		return s.Kind
	}
	return s.Kind + ":" + s.Option
}

// Inject places token into req according to the scheme. Existing query
// parameters and form fields are preserved.
func (s BearerScheme) Inject(req *http.Request, token string) error {
	switch s.Kind {
	case SchemeAuthHeader, "":
		realm := s.Option
		if realm == "" {
			realm = DefaultRealm
		}
		req.Header.Set("Authorization", realm+" "+token)
		return nil

	case SchemeURIQuery:
		field := s.Option
		if field == "" {
			field = DefaultTokenField
		}
		query := req.URL.Query()
		query.Set(field, token)
		req.URL.RawQuery = query.Encode()
		return nil

	case SchemeFormBody:
		return s.injectFormBody(req, token)

	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown bearer scheme %q", s.Kind)}
	}
}

// injectFormBody appends the token field to a form-encoded body. A request
// whose content type is not form-urlencoded fails with
// UnsupportedContentTypeError rather than having its body corrupted.
func (s BearerScheme) injectFormBody(req *http.Request, token string) error {
	contentType := req.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != formContentType {
		return &UnsupportedContentTypeError{ContentType: contentType}
	}

	field := s.Option
	if field == "" {
		field = DefaultTokenField
	}

	var form string
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return err
		}
		form = string(body)
	}

	if form != "" {
		form += "&"
	}
	form += url.QueryEscape(field) + "=" + url.QueryEscape(token)

	req.Body = io.NopCloser(strings.NewReader(form))
	req.ContentLength = int64(len(form))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(form)), nil
	}
	return nil
}
