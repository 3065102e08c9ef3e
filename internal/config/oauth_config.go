package config

import (
	"strings"
	"time"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetIssuerURL() string
	GetAuthorizationEndpoint() string
	GetTokenEndpoint() string
	GetAudience() string
	GetScopes() []string
	GetRedirectPath() string
	GetProviderTimeout() time.Duration
	GetPKCEWindow() time.Duration
	GetTokenExpiryBuffer() time.Duration
	GetSessionTTL() time.Duration
}

type OAuth struct {
	clientID     string
	clientSecret string
	issuerURL    string
	authorizeURL string
	tokenURL     string
	audience     string
	scopes       []string
	redirectPath string
}

var _ OAuthConfig = OAuth{}

func loadOAuth() OAuth {
	return OAuth{
		clientID:     GetEnv("OAUTH_CLIENT_ID", ""),
		clientSecret: GetEnv("OAUTH_CLIENT_SECRET", ""),
		issuerURL:    GetEnv("OAUTH_ISSUER_URL", ""),
		authorizeURL: GetEnv("OAUTH_AUTHORIZE_URL", "https://auth.atlassian.com/authorize"),
		tokenURL:     GetEnv("OAUTH_TOKEN_URL", "https://auth.atlassian.com/oauth/token"),
		audience:     GetEnv("OAUTH_AUDIENCE", "api.atlassian.com"),
		scopes:       strings.Fields(GetEnv("OAUTH_SCOPES", "read:jira-work read:jira-user offline_access")),
		redirectPath: GetEnv("OAUTH_REDIRECT_PATH", "/auth/callback"),
	}
}

func (o OAuth) GetClientID() string {
	return o.clientID
}

func (o OAuth) GetClientSecret() string {
	return o.clientSecret
}

// GetIssuerURL returns the OIDC issuer for endpoint discovery.
// When set, it takes precedence over the static authorize/token endpoints.
func (o OAuth) GetIssuerURL() string {
	return o.issuerURL
}

func (o OAuth) GetAuthorizationEndpoint() string {
	return o.authorizeURL
}

func (o OAuth) GetTokenEndpoint() string {
	return o.tokenURL
}

func (o OAuth) GetAudience() string {
	return o.audience
}

func (o OAuth) GetScopes() []string {
	return o.scopes
}

func (o OAuth) GetRedirectPath() string {
	return o.redirectPath
}

func (OAuth) GetProviderTimeout() time.Duration {
	return 10 * time.Second
}

// GetPKCEWindow is the validity window of an in-flight authorization attempt.
func (OAuth) GetPKCEWindow() time.Duration {
	return 5 * time.Minute
}

// GetTokenExpiryBuffer is the safety margin applied when deciding whether a
// cached access token must be refreshed before use.
func (OAuth) GetTokenExpiryBuffer() time.Duration {
	return 5 * time.Minute
}

func (OAuth) GetSessionTTL() time.Duration {
	return 24 * time.Hour
}
