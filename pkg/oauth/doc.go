// Package oauth implements the client side of the OAuth 2.0
// authorization-code and resource-owner-password grants (RFC 6749) and
// bearer-token usage (RFC 6750).
//
// # Core Components
//
//   - Profile: per-provider configuration that builds the protocol
//     requests and orchestrates token exchange and refresh
//   - AccessToken: the stateful credential with expiry checking, lazy
//     refresh and a dirty flag for external persistence
//   - BearerScheme: strategies that place a token into an outgoing
//     request (header, query string, or form body)
//   - DecodeParams: token-response decoding that tolerates both JSON and
//     form-encoded bodies
//   - FrozenSession: the flat JSON form of a token for persistence
//
// # Usage
//
// Web-server (authorization-code) flow:
//
//	profile, err := oauth.NewProfile(oauth.ProfileConfig{
//		ClientID:     id,
//		ClientSecret: secret,
//		Site:         "https://provider.example.com",
//		Endpoints: map[oauth.Command]oauth.EndpointConfig{
//			oauth.CommandAuthorize:   {URL: "/oauth/authorize"},
//			oauth.CommandAccessToken: {URL: "/oauth/token"},
//		},
//		Grant: oauth.AuthorizationCodeGrant{RedirectURI: "https://app.example.com/callback"},
//	})
//
//	authURL, err := profile.AuthorizeURL(nil)
//	// ... user agent visits authURL, comes back with a code ...
//	token, err := profile.ExchangeCode(ctx, code, nil)
//
// Authenticated calls go through the token, which refreshes itself when
// configured to:
//
//	token.SetAutoRefresh(true)
//	resp, err := token.Get(ctx, "https://provider.example.com/api/me")
//
// Tokens in an error state carry the server's RFC 6749 error fields
// instead of a bearer string; check token.IsError() before use.
package oauth
