// Package sessionstore persists frozen OAuth sessions per provider.
//
// Sessions are stored as JSON files under ~/.config/oauthkit/sessions with
// restrictive permissions, or purely in memory when file mode is disabled.
// The store never inspects or rejects sessions by expiry: an expired
// session may still carry a redeemable refresh token.
package sessionstore
