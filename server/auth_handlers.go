package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"tracklight/auth"
	ierrors "tracklight/internal/errors"
	"tracklight/oauth2client"
)

const contentTypeJSON = "application/json; charset=utf-8"

// LoginHandler starts the authorization flow: it stores fresh PKCE
// parameters on the session and redirects the browser to the provider.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.ensureSession(w, r)
		if err != nil {
			log.Err(err).Msg("Failed to create session")
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		authURL, err := s.auth.Begin(session.ID)
		if err != nil {
			// Entropy or store failure; never fall back to a weaker flow.
			log.Err(err).Msg("Failed to begin authorization")
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// CallbackHandler finishes the authorization flow. Validation failures
// redirect to the error page with a reason; provider failures are
// logged server-side and surfaced as a generic message.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.currentSession(r)
		if session == nil {
			redirectWithError(w, r, auth.ReasonInvalidState)
			return
		}

		params := auth.CallbackParams{
			Code:             r.URL.Query().Get("code"),
			State:            r.URL.Query().Get("state"),
			Error:            r.URL.Query().Get("error"),
			ErrorDescription: r.URL.Query().Get("error_description"),
		}
		if params.Error != "" {
			log.Warn().
				Str("error", params.Error).
				Str("description", params.ErrorDescription).
				Msg("Provider reported an authorization error")
		}

		if err := s.auth.Complete(r.Context(), session.ID, params); err != nil {
			var validationErr *auth.ValidationError
			if ierrors.As(err, &validationErr) {
				redirectWithError(w, r, validationErr.Reason)
				return
			}

			// Exchange failure: downstream status/body stay in the logs.
			logExchangeError(err, "Token exchange failed")
			redirectWithError(w, r, "Authentication failed")
			return
		}

		http.Redirect(w, r, RouteIndex, http.StatusFound)
	}
}

// StatusHandler reports the session's authentication state for polling
// by the dashboard.
func (s *Server) StatusHandler() http.HandlerFunc {
	type statusResponse struct {
		Authenticated bool   `json:"authenticated"`
		ExpiresAt     *int64 `json:"expiresAt,omitempty"`
		AccountID     string `json:"accountId,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{}
		if session := s.currentSession(r); session != nil {
			info := s.auth.Status(session.ID)
			resp.Authenticated = info.Authenticated
			resp.AccountID = info.AccountID
			if info.Authenticated && !info.ExpiresAt.IsZero() {
				millis := info.ExpiresAt.UnixMilli()
				resp.ExpiresAt = &millis
			}
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// LogoutHandler destroys the session and both of its records.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)

		if session := s.currentSession(r); session != nil {
			if err := s.auth.Logout(session.ID); err != nil {
				log.Err(err).Msg("Failed to destroy session")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Failed to log out"})
				return
			}
		}
		s.clearSessionCookie(w, r)

		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}
}

func logExchangeError(err error, msg string) {
	var exchangeErr *oauth2client.ExchangeError
	if ierrors.As(err, &exchangeErr) {
		log.Error().
			Str("op", exchangeErr.Op).
			Int("status", exchangeErr.StatusCode).
			Bytes("body", exchangeErr.Body).
			Msg(msg)
		return
	}
	log.Err(err).Msg(msg)
}
