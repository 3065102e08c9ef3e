package errors

import "errors"

// Common error types for the Tracklight auth core
var (
	// Configuration errors (fatal at startup)
	ErrMissingConfiguration = errors.New("missing required configuration")

	// Callback validation errors (user-recoverable, redirected with a reason)
	ErrProviderDenied        = errors.New("authorization denied by provider")
	ErrMissingCallbackParams = errors.New("missing code or state parameter")
	ErrInvalidState          = errors.New("invalid state parameter")
	ErrAuthSessionExpired    = errors.New("oauth session expired")

	// Token errors
	ErrAuthenticationRequired = errors.New("not authenticated")
	ErrMalformedTokenResponse = errors.New("malformed token response")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
