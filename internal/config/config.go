package config

import (
	ierrors "tracklight/internal/errors"

	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	OAuthConfig
	CorsConfig
	TicketsConfig
}

type mainConfig struct {
	EnvVars
	OAuth
	Cors
	Tickets
}

// New loads configuration from the environment once, at startup.
// Values are captured at construction so components see an immutable view.
func New() Config {
	return mainConfig{
		EnvVars: loadEnvVars(),
		OAuth:   loadOAuth(),
		Cors:    loadCors(),
		Tickets: loadTickets(),
	}
}

// Validate checks that the configuration required at boot is present.
// The process must not start without a complete OAuth client setup.
func Validate(c Config) error {
	if c.GetClientID() == "" {
		return errors.Wrap(ierrors.ErrMissingConfiguration, "OAUTH_CLIENT_ID is required")
	}
	if c.GetClientSecret() == "" {
		return errors.Wrap(ierrors.ErrMissingConfiguration, "OAUTH_CLIENT_SECRET is required")
	}
	if c.GetIssuerURL() == "" && (c.GetAuthorizationEndpoint() == "" || c.GetTokenEndpoint() == "") {
		return errors.Wrap(ierrors.ErrMissingConfiguration,
			"either OAUTH_ISSUER_URL or both OAUTH_AUTHORIZE_URL and OAUTH_TOKEN_URL are required")
	}
	if c.GetBaseURL() == "" {
		return errors.Wrap(ierrors.ErrMissingConfiguration, "BASE_URL is required")
	}
	return nil
}
