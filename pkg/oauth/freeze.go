package oauth

import "time"

// FrozenSession is the flat, JSON-serializable form of an AccessToken used
// for external persistence. The Profile is never part of it; a thawed
// session is rebound to a Profile reconstructed from application
// configuration.
type FrozenSession struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is an absolute epoch-seconds timestamp, not a duration.
	ExpiresAt int64 `json:"expires_at,omitempty"`

	Scope       string `json:"scope,omitempty"`
	State       string `json:"state,omitempty"`
	AutoRefresh bool   `json:"auto_refresh,omitempty"`
}

// Freeze snapshots the token for persistence and clears the dirty flag.
// Freezing is the only operation that clears Changed.
func (t *AccessToken) Freeze() FrozenSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	session := FrozenSession{
		AccessToken:  t.accessToken,
		TokenType:    t.tokenType,
		RefreshToken: t.refreshToken,
		Scope:        t.scope,
		State:        t.state,
		AutoRefresh:  t.autoRefresh,
	}
	if !t.expiresAt.IsZero() {
		session.ExpiresAt = t.expiresAt.Unix()
	}
	t.changed = false
	return session
}

// Thaw reconstructs an AccessToken from a frozen session, bound to the
// given Profile.
func Thaw(session FrozenSession, profile *Profile) *AccessToken {
	token := newAccessToken(profile, profile.margin)
	token.accessToken = session.AccessToken
	token.tokenType = session.TokenType
	token.refreshToken = session.RefreshToken
	if session.ExpiresAt != 0 {
		token.expiresAt = time.Unix(session.ExpiresAt, 0)
	}
	token.scope = session.Scope
	token.state = session.State
	token.autoRefresh = session.AutoRefresh
	return token
}
