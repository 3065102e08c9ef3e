// Package oauth2client talks to the identity provider: it builds the
// authorization URL and performs the code-for-token exchange and the
// refresh-token grant. All provider responses are decoded once, here,
// at the network boundary.
package oauth2client

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"tracklight/internal/config"
	"tracklight/pkce"
)

// Provider is the surface the workflow controller depends on. Tests
// substitute a counting fake.
type Provider interface {
	AuthCodeURL(state, codeChallenge string) string
	Exchange(ctx context.Context, code, codeVerifier string) (*TokenResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResult, error)
}

// Client implements Provider against a real OAuth 2.0 provider.
type Client struct {
	conf       *oauth2.Config
	audience   string
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

// Option modifies a Client instance.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for token calls
// (primarily for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New builds a provider client from configuration. When an issuer URL
// is configured the authorization and token endpoints come from the
// issuer's OIDC discovery document; otherwise the statically configured
// endpoints are used.
func New(ctx context.Context, cfg config.OAuthConfig, baseURL string, options ...Option) (*Client, error) {
	endpoint, err := resolveEndpoint(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[oauth2client.New] resolve endpoints")
	}

	client := &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			Endpoint:     endpoint,
			RedirectURL:  strings.TrimSuffix(baseURL, "/") + cfg.GetRedirectPath(),
			Scopes:       cfg.GetScopes(),
		},
		audience: cfg.GetAudience(),
		httpClient: &http.Client{
			Timeout: cfg.GetProviderTimeout(),
		},
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

// RedirectURI returns the callback URI registered with the provider.
func (c *Client) RedirectURI() string {
	return c.conf.RedirectURL
}

// AuthCodeURL assembles the provider's authorization endpoint URL for a
// fresh authorization attempt. The parameter set is fixed:
// audience, client_id, scope, redirect_uri, response_type=code, state,
// code_challenge, code_challenge_method=S256 and prompt=consent.
func (c *Client) AuthCodeURL(state, codeChallenge string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.ChallengeMethod),
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
	if c.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", c.audience))
	}
	return c.conf.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code plus its PKCE verifier for a
// token pair. One POST, no retries: authorization codes are single-use,
// a retry would fail again or burn a new flow.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (*TokenResult, error) {
	tok, err := c.conf.Exchange(c.withHTTPClient(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, newExchangeError(OpExchange, err)
	}
	return decodeToken(tok)
}

// Refresh trades a refresh token for a new token pair. Same failure
// contract as Exchange, distinct error op.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	src := c.conf.TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, newExchangeError(OpRefresh, err)
	}
	return decodeToken(tok)
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func resolveEndpoint(ctx context.Context, cfg config.OAuthConfig) (oauth2.Endpoint, error) {
	if issuer := cfg.GetIssuerURL(); issuer != "" {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return oauth2.Endpoint{}, errors.Wrap(err, "oidc discovery")
		}
		endpoint := provider.Endpoint()
		endpoint.AuthStyle = oauth2.AuthStyleInParams
		return endpoint, nil
	}
	return oauth2.Endpoint{
		AuthURL:  cfg.GetAuthorizationEndpoint(),
		TokenURL: cfg.GetTokenEndpoint(),
		// Client credentials travel in the form body, not a basic-auth header.
		AuthStyle: oauth2.AuthStyleInParams,
	}, nil
}
