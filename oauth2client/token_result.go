package oauth2client

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"

	ierrors "tracklight/internal/errors"
)

// TokenResult is the decoded provider token payload. ExpiresAt is
// absolute, derived at the moment the response was received; it is
// never trusted from a client-supplied value.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

// Ops distinguish the two token-endpoint grants in error reporting.
const (
	OpExchange = "exchange"
	OpRefresh  = "refresh"
)

// ExchangeError reports a failed token call. StatusCode and Body carry
// the downstream response for server-side logging; they must never be
// surfaced to the browser.
type ExchangeError struct {
	Op         string
	StatusCode int
	Body       []byte
	err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token %s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("token %s failed: %v", e.Op, e.err)
}

func (e *ExchangeError) Unwrap() error {
	return e.err
}

func newExchangeError(op string, err error) *ExchangeError {
	exErr := &ExchangeError{Op: op, err: err}
	var retrieveErr *oauth2.RetrieveError
	if ierrors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil {
			exErr.StatusCode = retrieveErr.Response.StatusCode
		}
		exErr.Body = retrieveErr.Body
	}
	return exErr
}

// decodeToken validates the provider payload once, at the boundary.
// A payload without an access token is rejected here rather than
// propagated as an empty credential.
func decodeToken(tok *oauth2.Token) (*TokenResult, error) {
	if tok.AccessToken == "" {
		return nil, ierrors.ErrMalformedTokenResponse
	}
	scope, _ := tok.Extra("scope").(string)
	return &TokenResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		Scope:        scope,
	}, nil
}
