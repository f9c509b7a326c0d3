package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout is the default timeout for protocol HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// ProfileConfig configures a Profile. One Profile is created per
// application-to-provider pairing and is immutable afterwards.
type ProfileConfig struct {
	// ClientID and ClientSecret are the client credentials. Both are
	// required.
	ClientID     string
	ClientSecret string

	// Site is the provider base URL. Endpoint URLs given as relative paths
	// are resolved against it.
	Site string

	// Endpoints configures the per-command requests. An access_token
	// endpoint is required; the refresh_token command falls back to the
	// access_token endpoint when it has no configuration of its own.
	Endpoints map[Command]EndpointConfig

	// Scope is the requested permission scope, space-separated.
	Scope string

	// State is the state value attached to authorization requests.
	State string

	// Grant selects the flow used to obtain tokens. Defaults to the
	// authorization_code grant.
	Grant GrantStrategy

	// BearerScheme selects where authenticated requests carry the token,
	// as a "kind:option" identifier. Defaults to "auth-header".
	BearerScheme string

	// OmitSecretFromParams restricts the client secret to the Basic
	// authorization header. By default the client id and secret are placed
	// both in the request body and in the header, which supports servers
	// that only accept one of the two forms.
	OmitSecretFromParams bool

	// ExpiryMargin overrides the expiry safety margin applied to tokens
	// this Profile produces. Defaults to DefaultExpiryMargin.
	ExpiryMargin time.Duration

	// HTTPClient overrides the transport. The default client times out
	// after DefaultHTTPTimeout and never follows redirects: an authorize
	// request mistakenly sent as an HTTP call must not leak the code by
	// being followed.
	HTTPClient *http.Client

	// Logger overrides the logger. Token values are never logged.
	Logger *slog.Logger
}

// Profile owns the client credentials, endpoint configuration, bearer
// scheme and transport for one provider, and builds and orchestrates the
// protocol requests. It is safe for concurrent use.
type Profile struct {
	creds      ClientCredentials
	site       *url.URL
	endpoints  map[Command]EndpointConfig
	scope      string
	state      string
	grant      GrantStrategy
	bearer     BearerScheme
	omitSecret bool
	margin     time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProfile creates a Profile from the given configuration.
func NewProfile(cfg ProfileConfig) (*Profile, error) {
	creds, err := NewClientCredentials(cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, err
	}

	var site *url.URL
	if cfg.Site != "" {
		site, err = url.Parse(cfg.Site)
		if err != nil {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("invalid site URL %q: %v", cfg.Site, err)}
		}
	}

	bearer, err := ParseBearerScheme(cfg.BearerScheme)
	if err != nil {
		return nil, err
	}

	grant := cfg.Grant
	if grant == nil {
		grant = AuthorizationCodeGrant{}
	}

	margin := cfg.ExpiryMargin
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultHTTPTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	endpoints := make(map[Command]EndpointConfig, len(cfg.Endpoints))
	for cmd, ep := range cfg.Endpoints {
		endpoints[cmd] = ep
	}

	p := &Profile{
		creds:      creds,
		site:       site,
		endpoints:  endpoints,
		scope:      cfg.Scope,
		state:      cfg.State,
		grant:      grant,
		bearer:     bearer,
		omitSecret: cfg.OmitSecretFromParams,
		margin:     margin,
		httpClient: httpClient,
		logger:     logger,
	}

	// The token endpoint is exercised by every grant; fail at construction
	// rather than on first use.
	if _, _, _, err := p.endpointFor(CommandAccessToken); err != nil {
		return nil, err
	}

	return p, nil
}

// Scope returns the configured scope.
func (p *Profile) Scope() string { return p.scope }

// State returns the configured state value.
func (p *Profile) State() string { return p.state }

// Grant returns the configured grant strategy.
func (p *Profile) Grant() GrantStrategy { return p.grant }

// Bearer returns the configured bearer scheme.
func (p *Profile) Bearer() BearerScheme { return p.bearer }

// endpointFor resolves the endpoint configuration for a command.
func (p *Profile) endpointFor(cmd Command) (*url.URL, string, []Param, error) {
	ep, ok := p.endpoints[cmd]
	if (!ok || ep.URL == "") && cmd == CommandRefreshToken {
		ep = p.endpoints[CommandAccessToken]
	}
	if ep.URL == "" {
		return nil, "", nil, &ConfigurationError{Reason: fmt.Sprintf("no %s endpoint configured", cmd)}
	}

	u, err := url.Parse(ep.URL)
	if err != nil {
		return nil, "", nil, &ConfigurationError{Reason: fmt.Sprintf("invalid %s endpoint URL %q: %v", cmd, ep.URL, err)}
	}
	if !u.IsAbs() {
		if p.site == nil {
			return nil, "", nil, &ConfigurationError{Reason: fmt.Sprintf("relative %s endpoint URL %q without a site URL", cmd, ep.URL)}
		}
		u = p.site.ResolveReference(u)
	}

	method := ep.Method
	if method == "" {
		switch cmd {
		case CommandAccessToken, CommandRefreshToken:
			method = http.MethodPost
		default:
			method = http.MethodGet
		}
	}

	return u, method, ep.ExtraParams, nil
}

// AuthorizeURL builds the authorization redirect URL. It never sends a
// request; the redirect is handed to a user agent outside this system's
// control. The client secret is never part of the URL.
//
// Merge order is call-site extra over profile endpoint parameters over
// protocol defaults.
func (p *Profile) AuthorizeURL(extra url.Values) (string, error) {
	u, _, extraParams, err := p.endpointFor(CommandAuthorize)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set("response_type", "code")
	query.Set("client_id", p.creds.ID)
	if p.scope != "" {
		query.Set("scope", p.scope)
	}
	if p.state != "" {
		query.Set("state", p.state)
	}
	if g, ok := p.grant.(AuthorizationCodeGrant); ok && g.RedirectURI != "" {
		query.Set("redirect_uri", g.RedirectURI)
	}
	for _, param := range extraParams {
		query.Set(param.Key, param.Value)
	}
	for key, values := range extra {
		query[key] = values
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}

// ExchangeCode exchanges an authorization code for an AccessToken. An RFC
// 6749 section 5.2 error response does not fail the call; the error fields
// are captured on the returned token, which the caller must inspect via
// IsError before using it.
func (p *Profile) ExchangeCode(ctx context.Context, code string, extra url.Values) (*AccessToken, error) {
	if _, ok := p.grant.(AuthorizationCodeGrant); !ok {
		return nil, &ConfigurationError{Reason: "profile is not configured for the authorization_code grant"}
	}
	return p.exchange(ctx, exchangeInput{code: code}, extra)
}

// ExchangePassword obtains an AccessToken with the resource-owner password
// grant. The owner credentials are used for this call only and are not
// retained.
func (p *Profile) ExchangePassword(ctx context.Context, username, password string, extra url.Values) (*AccessToken, error) {
	if _, ok := p.grant.(PasswordGrant); !ok {
		return nil, &ConfigurationError{Reason: "profile is not configured for the password grant"}
	}
	return p.exchange(ctx, exchangeInput{username: username, password: password}, extra)
}

func (p *Profile) exchange(ctx context.Context, in exchangeInput, extra url.Values) (*AccessToken, error) {
	grantParams, err := p.grant.tokenParams(in)
	if err != nil {
		return nil, err
	}

	form := p.clientParams()
	form.Set("grant_type", p.grant.GrantType())
	if p.scope != "" {
		form.Set("scope", p.scope)
	}
	for key, values := range grantParams {
		form[key] = values
	}

	token := newAccessToken(p, p.margin)
	token.scope = p.scope
	token.state = p.state

	params, err := p.tokenRoundTrip(ctx, CommandAccessToken, form, extra)
	if err != nil {
		if code, desc, uri, ok := tokenErrorFrom(err); ok {
			token.setTokenError(code, desc, uri)
			return token, nil
		}
		return nil, err
	}

	if params["error"] != "" {
		token.setTokenError(params["error"], params["error_description"], params["error_uri"])
		return token, nil
	}
	if params["access_token"] == "" {
		return nil, &ProtocolError{Context: string(CommandAccessToken), Body: "response lacks access_token"}
	}

	token.applyParams(params)
	return token, nil
}

// Refresh redeems token's refresh token for a new access token, mutating
// token in place. It fails with ErrRefreshUnavailable when no refresh token
// is present, and with a ProtocolError when the server omits access_token
// or expires_in. A structured server error is captured on the token rather
// than returned, like in ExchangeCode.
func (p *Profile) Refresh(ctx context.Context, token *AccessToken, extra url.Values) error {
	refreshToken := token.RefreshToken()
	if refreshToken == "" {
		return ErrRefreshUnavailable
	}

	form := p.clientParams()
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	params, err := p.tokenRoundTrip(ctx, CommandRefreshToken, form, extra)
	if err != nil {
		if code, desc, uri, ok := tokenErrorFrom(err); ok {
			token.setTokenError(code, desc, uri)
			return nil
		}
		return err
	}

	if params["error"] != "" {
		token.setTokenError(params["error"], params["error_description"], params["error_uri"])
		return nil
	}

	access := params["access_token"]
	expiresIn := params["expires_in"]
	if access == "" || expiresIn == "" {
		return &ProtocolError{Context: string(CommandRefreshToken), Body: "response lacks access_token or expires_in"}
	}
	seconds, err := strconv.ParseInt(expiresIn, 10, 64)
	if err != nil {
		return &ProtocolError{Context: string(CommandRefreshToken), Body: fmt.Sprintf("invalid expires_in %q", expiresIn)}
	}

	token.UpdateToken(access, params["token_type"], timeNow().Add(time.Duration(seconds)*time.Second), params["refresh_token"])

	p.logger.Debug("refreshed access token",
		"token_type", token.TokenType(),
		"expires_at", token.ExpiresAt(),
		"refresh_token_rotated", params["refresh_token"] != "")
	return nil
}

// NewAuthenticatedRequest builds a request to uri carrying token's bearer
// credential per the Profile's bearer scheme. An empty uri targets the
// protected_resource endpoint. The token is read through ReadToken, so a
// warranted refresh happens before the request is built.
func (p *Profile) NewAuthenticatedRequest(ctx context.Context, token *AccessToken, method, uri string, extra url.Values) (*http.Request, error) {
	var extraParams []Param
	if uri == "" {
		u, defaultMethod, params, err := p.endpointFor(CommandProtectedResource)
		if err != nil {
			return nil, err
		}
		uri = u.String()
		extraParams = params
		if method == "" {
			method = defaultMethod
		}
	}
	if method == "" {
		method = http.MethodGet
	}

	params := url.Values{}
	for _, param := range extraParams {
		params.Set(param.Key, param.Value)
	}
	for key, values := range extra {
		params[key] = values
	}

	var req *http.Request
	var err error
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req, err = http.NewRequestWithContext(ctx, method, uri, strings.NewReader(params.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", formContentType)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, uri, nil)
		if err != nil {
			return nil, err
		}
		if len(params) > 0 {
			query := req.URL.Query()
			for key, values := range params {
				query[key] = values
			}
			req.URL.RawQuery = query.Encode()
		}
	}

	if err := p.bearer.Inject(req, token.ReadToken(ctx)); err != nil {
		return nil, err
	}
	return req, nil
}

// Do sends a request over the Profile's transport. A transport-level
// failure is surfaced as a TransportError.
func (p *Profile) Do(req *http.Request) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return resp, nil
}

// clientParams returns the client identification parameters placed in
// token request bodies.
func (p *Profile) clientParams() url.Values {
	form := url.Values{"client_id": {p.creds.ID}}
	if !p.omitSecret {
		form.Set("client_secret", p.creds.Secret)
	}
	return form
}

// tokenRoundTrip builds, sends and decodes a token-endpoint request. The
// client credentials ride in the Basic authorization header in their
// percent-encoded form regardless of whether they are also body parameters
// (RFC 6749 section 2.3.1).
func (p *Profile) tokenRoundTrip(ctx context.Context, cmd Command, form url.Values, extra url.Values) (map[string]string, error) {
	u, method, extraParams, err := p.endpointFor(cmd)
	if err != nil {
		return nil, err
	}

	for _, param := range extraParams {
		form.Set(param.Key, param.Value)
	}
	for key, values := range extra {
		form[key] = values
	}

	var req *http.Request
	if method == http.MethodGet {
		// A few providers only accept token requests as GET query strings.
		query := u.Query()
		for key, values := range form {
			query[key] = values
		}
		u.RawQuery = query.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), strings.NewReader(form.Encode()))
	}
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet {
		req.Header.Set("Content-Type", formContentType)
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.creds.BasicAuth())

	p.logger.Debug("sending token request", "command", string(cmd), "url", u.Redacted(), "method", method)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	params, err := DecodeParams(resp, string(cmd))
	if err != nil {
		return nil, err
	}
	return params, nil
}

// tokenErrorFrom extracts an RFC 6749 structured error from a failed token
// round trip. Authorization servers return these with a 400 status, so
// they arrive here wrapped in a ServerError.
func tokenErrorFrom(err error) (code, description, uri string, ok bool) {
	serverErr, isServer := err.(*ServerError)
	if !isServer {
		return "", "", "", false
	}

	params, decoded := decodeJSONParams([]byte(serverErr.Body))
	if !decoded {
		params, decoded = decodeFormParams([]byte(serverErr.Body))
	}
	if !decoded || params["error"] == "" {
		return "", "", "", false
	}
	return params["error"], params["error_description"], params["error_uri"], true
}

// applyParams fills the token from a successful exchange response.
func (t *AccessToken) applyParams(params map[string]string) {
	var expiresAt time.Time
	if v := params["expires_in"]; v != "" {
		if seconds, err := strconv.ParseInt(v, 10, 64); err == nil && seconds > 0 {
			expiresAt = timeNow().Add(time.Duration(seconds) * time.Second)
		}
	}

	t.UpdateToken(params["access_token"], params["token_type"], expiresAt, params["refresh_token"])

	if scope := params["scope"]; scope != "" {
		t.mu.Lock()
		t.scope = scope
		t.mu.Unlock()
	}
	if state := params["state"]; state != "" {
		t.mu.Lock()
		t.state = state
		t.mu.Unlock()
	}
}
