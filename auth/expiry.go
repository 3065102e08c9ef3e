package auth

import "time"

// TokenExpiryBuffer is the default safety margin: a token is refreshed
// slightly before the provider would reject it, so a request never
// starts with a token that expires mid-flight.
const TokenExpiryBuffer = 5 * time.Minute

// PKCEWindow is the default validity window of an in-flight
// authorization attempt.
const PKCEWindow = 5 * time.Minute

// IsTokenExpired reports whether a cached token must be refreshed
// before use. A zero expiry means the provider reported no lifetime;
// such tokens are used as-is.
func IsTokenExpired(expiresAt time.Time, buffer time.Duration, now time.Time) bool {
	if expiresAt.IsZero() {
		return false
	}
	return !expiresAt.Add(-buffer).After(now)
}
