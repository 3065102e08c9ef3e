// Package auth orchestrates the OAuth authorization workflow per
// browser session: login initiation, callback validation and code
// exchange, refresh-before-use, and logout.
package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	ierrors "tracklight/internal/errors"
	"tracklight/oauth2client"
	"tracklight/pkce"
	"tracklight/sessions"
)

// CallbackParams are the query parameters the provider sends to the
// callback endpoint.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// StatusInfo is the poll result for the status endpoint.
type StatusInfo struct {
	Authenticated bool
	ExpiresAt     time.Time
	AccountID     string
}

// Service is the authorization workflow controller. It is the only
// component that mutates the session-bound PKCE and token records.
type Service struct {
	sessions sessions.Repo
	provider oauth2client.Provider

	pkceWindow   time.Duration
	expiryBuffer time.Duration
	nowTime      func() time.Time // injectable for testing

	// Concurrent expired-token accesses for one session coalesce into a
	// single refresh call.
	refreshGroup singleflight.Group
}

// Option defines a function type to modify the Service instance.
type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithPKCEWindow overrides the authorization attempt validity window.
func WithPKCEWindow(window time.Duration) Option {
	return func(s *Service) {
		s.pkceWindow = window
	}
}

// WithExpiryBuffer overrides the refresh-before-use safety margin.
func WithExpiryBuffer(buffer time.Duration) Option {
	return func(s *Service) {
		s.expiryBuffer = buffer
	}
}

// NewService initializes the workflow controller with its dependencies.
func NewService(sessionRepo sessions.Repo, provider oauth2client.Provider, options ...Option) (*Service, error) {
	if sessionRepo == nil {
		return nil, errors.New("[NewService] session repo is required")
	}
	if provider == nil {
		return nil, errors.New("[NewService] provider client is required")
	}

	service := &Service{
		sessions:     sessionRepo,
		provider:     provider,
		pkceWindow:   PKCEWindow,
		expiryBuffer: TokenExpiryBuffer,
		nowTime:      time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Begin starts a fresh authorization attempt for the session: it stores
// a new PKCE record, overwriting any pending one, and returns the
// provider authorization URL to redirect the browser to.
func (s *Service) Begin(sessionID string) (string, error) {
	verifier, err := pkce.NewVerifier()
	if err != nil {
		return "", errors.Wrap(err, "[Service.Begin] verifier generation")
	}
	state, err := pkce.NewState()
	if err != nil {
		return "", errors.Wrap(err, "[Service.Begin] state generation")
	}

	record := &sessions.PKCERecord{
		CodeVerifier: verifier,
		State:        state,
		CreatedAt:    s.nowTime(),
	}
	if err := s.sessions.SetPKCE(sessionID, record); err != nil {
		return "", errors.Wrap(err, "[Service.Begin] sessions.SetPKCE")
	}

	return s.provider.AuthCodeURL(state, pkce.Challenge(verifier)), nil
}

// Complete finishes the authorization attempt. Validation runs in a
// fixed order and any failure returns a *ValidationError without
// calling the token endpoint. The PKCE record is consumed on success
// and on failure alike.
func (s *Service) Complete(ctx context.Context, sessionID string, params CallbackParams) error {
	if params.Error != "" {
		_ = s.sessions.ClearPKCE(sessionID)
		return &ValidationError{Reason: ReasonProviderDenied, err: ierrors.ErrProviderDenied}
	}
	if params.Code == "" || params.State == "" {
		_ = s.sessions.ClearPKCE(sessionID)
		return &ValidationError{Reason: ReasonMissingParams, err: ierrors.ErrMissingCallbackParams}
	}

	session, err := s.sessions.Get(sessionID)
	if err != nil || session.PKCE == nil {
		return &ValidationError{Reason: ReasonInvalidState, err: ierrors.ErrInvalidState}
	}
	record := session.PKCE

	// The record is single-use whatever happens next.
	defer func() {
		_ = s.sessions.ClearPKCE(sessionID)
	}()

	if subtle.ConstantTimeCompare([]byte(record.State), []byte(params.State)) != 1 {
		return &ValidationError{Reason: ReasonInvalidState, err: ierrors.ErrInvalidState}
	}
	if s.nowTime().Sub(record.CreatedAt) > s.pkceWindow {
		return &ValidationError{Reason: ReasonSessionExpired, err: ierrors.ErrAuthSessionExpired}
	}

	result, err := s.provider.Exchange(ctx, params.Code, record.CodeVerifier)
	if err != nil {
		return errors.Wrap(err, "[Service.Complete] provider.Exchange")
	}

	if err := s.sessions.SetToken(sessionID, tokenRecord(result)); err != nil {
		return errors.Wrap(err, "[Service.Complete] sessions.SetToken")
	}
	return nil
}

// AccessToken performs the authenticated-access transition: it returns
// a bearer token good for downstream calls, refreshing first when the
// cached token is within the expiry buffer. On refresh failure the
// token record is destroyed and the caller must require a fresh full
// authorization.
func (s *Service) AccessToken(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil || session.Token == nil {
		return "", ierrors.ErrAuthenticationRequired
	}

	token := session.Token
	if !IsTokenExpired(token.ExpiresAt, s.expiryBuffer, s.nowTime()) {
		return token.AccessToken, nil
	}

	v, err, _ := s.refreshGroup.Do(sessionID, func() (interface{}, error) {
		return s.refresh(ctx, sessionID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Status reports the session's authentication state for polling.
func (s *Service) Status(sessionID string) StatusInfo {
	session, err := s.sessions.Get(sessionID)
	if err != nil || session.Token == nil {
		return StatusInfo{}
	}
	return StatusInfo{
		Authenticated: true,
		ExpiresAt:     session.Token.ExpiresAt,
		AccountID:     accountID(session.Token.AccessToken),
	}
}

// Logout destroys the entire session, both records included. Idempotent.
func (s *Service) Logout(sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return errors.Wrap(err, "[Service.Logout] sessions.Delete")
	}
	return nil
}

func (s *Service) refresh(ctx context.Context, sessionID string) (string, error) {
	// Re-read inside the singleflight: a coalesced caller may find a
	// token another request already refreshed.
	session, err := s.sessions.Get(sessionID)
	if err != nil || session.Token == nil {
		return "", ierrors.ErrAuthenticationRequired
	}
	token := session.Token
	if !IsTokenExpired(token.ExpiresAt, s.expiryBuffer, s.nowTime()) {
		return token.AccessToken, nil
	}

	if token.RefreshToken == "" {
		_ = s.sessions.ClearToken(sessionID)
		return "", ierrors.ErrAuthenticationRequired
	}

	result, err := s.provider.Refresh(ctx, token.RefreshToken)
	if err != nil {
		_ = s.sessions.ClearToken(sessionID)
		return "", errors.Wrap(err, "[Service.AccessToken] provider.Refresh")
	}

	record := tokenRecord(result)
	if record.RefreshToken == "" {
		// Provider omitted a new refresh token; keep the old one.
		record.RefreshToken = token.RefreshToken
	}
	if err := s.sessions.SetToken(sessionID, record); err != nil {
		return "", errors.Wrap(err, "[Service.AccessToken] sessions.SetToken")
	}
	return record.AccessToken, nil
}

func tokenRecord(result *oauth2client.TokenResult) *sessions.TokenRecord {
	return &sessions.TokenRecord{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
		Scope:        result.Scope,
	}
}
