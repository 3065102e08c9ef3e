package auth

// User-visible reasons for callback validation failures. These exact
// strings cross the trust boundary in the error-page redirect; provider
// detail never does.
const (
	ReasonProviderDenied = "Authorization failed"
	ReasonMissingParams  = "Missing code or state parameter"
	ReasonInvalidState   = "Invalid state parameter"
	ReasonSessionExpired = "OAuth session expired"
)

// ValidationError is a user-recoverable callback failure: the handler
// redirects to the error page with Reason and does not proceed to the
// token exchange.
type ValidationError struct {
	Reason string
	err    error
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.err
}
