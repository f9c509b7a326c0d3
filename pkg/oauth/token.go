package oauth

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// timeNow is swapped out in tests that exercise the expiry boundary.
var timeNow = time.Now

// Authority is the capability set an AccessToken needs from its owning
// Profile: refreshing itself and building/sending authenticated requests.
// The token holds it as a non-owning reference; the Profile must outlive
// the token. Tests can substitute a fake.
type Authority interface {
	// Refresh obtains a new access token using token's refresh token and
	// mutates token in place.
	Refresh(ctx context.Context, token *AccessToken, extra url.Values) error

	// NewAuthenticatedRequest builds a request carrying token's bearer
	// credential.
	NewAuthenticatedRequest(ctx context.Context, token *AccessToken, method, uri string, extra url.Values) (*http.Request, error)

	// Do sends a request over the Profile's transport.
	Do(req *http.Request) (*http.Response, error)
}

// AccessToken is the stateful credential produced by a token exchange or
// refresh. It may be shared across goroutines; refresh is serialized per
// token so that a rotating refresh token is never redeemed twice
// concurrently.
//
// A token can be in an error state: ErrorCode is set when the server
// returned an RFC 6749 section 5.2 failure. Callers must check IsError (or
// LastError) before trusting Token.
type AccessToken struct {
	authority Authority
	margin    time.Duration

	mu              sync.RWMutex
	accessToken     string
	tokenType       string
	refreshToken    string
	expiresAt       time.Time
	scope           string
	state           string
	autoRefresh     bool
	refreshAlways   bool
	changed         bool
	errorCode       string
	errorDesc       string
	errorURI        string
	refreshErr      error
	refreshInFlight singleflight.Group
}

// newAccessToken creates an empty token bound to an authority.
func newAccessToken(a Authority, margin time.Duration) *AccessToken {
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	return &AccessToken{authority: a, margin: margin}
}

// Token returns the current bearer string without triggering a refresh.
// Use ReadToken for reads that should honor auto-refresh.
func (t *AccessToken) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.accessToken
}

// TokenType returns the token type, typically "Bearer".
func (t *AccessToken) TokenType() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tokenType
}

// RefreshToken returns the refresh token, if any.
func (t *AccessToken) RefreshToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refreshToken
}

// ExpiresAt returns the absolute expiry time, zero when the token does not
// expire.
func (t *AccessToken) ExpiresAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.expiresAt
}

// Scope returns the granted scope.
func (t *AccessToken) Scope() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scope
}

// State returns the state value the token was obtained with.
func (t *AccessToken) State() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// AutoRefresh reports whether reads refresh the token transparently once it
// expires.
func (t *AccessToken) AutoRefresh() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.autoRefresh
}

// SetAutoRefresh enables or disables transparent refresh on read.
func (t *AccessToken) SetAutoRefresh(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoRefresh = v
}

// RefreshAlways reports whether every read refreshes the token regardless
// of expiry.
func (t *AccessToken) RefreshAlways() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refreshAlways
}

// SetRefreshAlways enables refresh on every read. Intended for servers that
// issue very short-lived, single-use tokens.
func (t *AccessToken) SetRefreshAlways(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshAlways = v
}

// Changed reports whether the token has been mutated since it was last
// frozen. It is the caller's signal to persist the session; only Freeze
// clears it.
func (t *AccessToken) Changed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.changed
}

// IsError reports whether the token is in an error state.
func (t *AccessToken) IsError() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorCode != ""
}

// ErrorCode returns the RFC 6749 error code, e.g. "invalid_grant".
func (t *AccessToken) ErrorCode() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorCode
}

// ErrorDescription returns the human-readable error description, if any.
func (t *AccessToken) ErrorDescription() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorDesc
}

// ErrorURI returns the error documentation URI, if any.
func (t *AccessToken) ErrorURI() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errorURI
}

// LastError returns the structured server error if the token is in an
// error state, or the failure recorded by the most recent lazy refresh
// attempt. Nil means the last operation on the token succeeded.
func (t *AccessToken) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.errorCode != "" {
		return &TokenError{Code: t.errorCode, Description: t.errorDesc, URI: t.errorURI}
	}
	return t.refreshErr
}

// Expired checks expiry with the configured safety margin.
func (t *AccessToken) Expired() bool {
	return t.ExpiredWithin(t.margin)
}

// ExpiredWithin reports whether the token is expired or will expire within
// margin. Tokens without an expiry never expire.
func (t *AccessToken) ExpiredWithin(margin time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.expiredLocked(margin)
}

func (t *AccessToken) expiredLocked(margin time.Duration) bool {
	if t.expiresAt.IsZero() {
		return false
	}
	return !t.expiresAt.After(timeNow().Add(margin))
}

// ReadToken returns the current bearer string, refreshing first when
// warranted by refresh_always or by auto_refresh plus expiry. A failed
// refresh is recorded on the token and the previous, possibly stale, value
// is returned: rejecting a stale token is the resource server's call, and
// a read should never fail for reasons unrelated to the read itself.
// Callers must check LastError after any read that could have refreshed.
func (t *AccessToken) ReadToken(ctx context.Context) string {
	if t.shouldRefresh() {
		// Coalesce concurrent refreshes: a rotating refresh token can only
		// be redeemed once, so racing callers share a single round trip.
		t.refreshInFlight.Do("refresh", func() (interface{}, error) {
			if !t.shouldRefresh() {
				return nil, nil
			}
			if err := t.authority.Refresh(ctx, t, nil); err != nil {
				t.recordRefreshFailure(err)
			}
			return nil, nil
		})
	}
	return t.Token()
}

func (t *AccessToken) shouldRefresh() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.refreshAlways {
		return true
	}
	return t.autoRefresh && t.expiredLocked(t.margin)
}

func (t *AccessToken) recordRefreshFailure(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshErr = err
}

// UpdateToken replaces the token contents after a successful exchange or
// refresh. A non-empty refreshToken replaces the stored one (refresh token
// rotation); an empty one leaves it untouched. Error state is cleared and
// the dirty flag set.
func (t *AccessToken) UpdateToken(accessToken, tokenType string, expiresAt time.Time, refreshToken string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accessToken = accessToken
	if tokenType != "" {
		t.tokenType = tokenType
	}
	t.expiresAt = expiresAt
	if refreshToken != "" {
		t.refreshToken = refreshToken
	}
	t.errorCode = ""
	t.errorDesc = ""
	t.errorURI = ""
	t.refreshErr = nil
	t.changed = true
}

// setTokenError captures an RFC 6749 structured failure on the token. The
// previous access token string is kept so that stale reads keep working.
func (t *AccessToken) setTokenError(code, description, uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errorCode = code
	t.errorDesc = description
	t.errorURI = uri
	t.changed = true
}

// Request performs an authenticated request through the owning Profile,
// refreshing the token first when warranted.
func (t *AccessToken) Request(ctx context.Context, method, uri string, extra url.Values) (*http.Response, error) {
	req, err := t.authority.NewAuthenticatedRequest(ctx, t, method, uri, extra)
	if err != nil {
		return nil, err
	}
	return t.authority.Do(req)
}

// Get performs an authenticated GET request.
func (t *AccessToken) Get(ctx context.Context, uri string) (*http.Response, error) {
	return t.Request(ctx, http.MethodGet, uri, nil)
}

// Post performs an authenticated POST request with a form-encoded body.
func (t *AccessToken) Post(ctx context.Context, uri string, params url.Values) (*http.Response, error) {
	return t.Request(ctx, http.MethodPost, uri, params)
}

// ToOAuth2Token converts the token for use with golang.org/x/oauth2.
func (t *AccessToken) ToOAuth2Token() *oauth2.Token {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &oauth2.Token{
		AccessToken:  t.accessToken,
		TokenType:    t.tokenType,
		RefreshToken: t.refreshToken,
		Expiry:       t.expiresAt,
	}
}
