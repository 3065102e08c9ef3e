package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	ierrors "tracklight/internal/errors"
	"tracklight/tickets"
)

const defaultTicketLimit = 25

// TicketListHandler proxies a read query to the remote issue tracker
// with the session's bearer token.
func (s *Server) TicketListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.validAccessToken(w, r)
		if !ok {
			return
		}

		query := r.URL.Query().Get("jql")
		limit := defaultTicketLimit
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}

		result, err := s.tickets.Search(r.Context(), token, query, limit)
		if err != nil {
			s.writeTicketError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"tickets": result})
	}
}

// TicketGetHandler proxies a single-ticket lookup.
func (s *Server) TicketGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := s.validAccessToken(w, r)
		if !ok {
			return
		}

		key := r.PathValue("key")
		if key == "" {
			writeJSONError(w, "Missing ticket key", http.StatusBadRequest)
			return
		}

		ticket, err := s.tickets.Get(r.Context(), token, key)
		if err != nil {
			s.writeTicketError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(ticket)
	}
}

// validAccessToken performs the authenticated-access transition for a
// proxy call. Any failure is reported as 401: either there was never a
// token or the refresh failed and the record has been destroyed.
func (s *Server) validAccessToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	session := s.currentSession(r)
	if session == nil {
		writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return "", false
	}

	token, err := s.auth.AccessToken(r.Context(), session.ID)
	if err != nil {
		if !ierrors.Is(err, ierrors.ErrAuthenticationRequired) {
			logExchangeError(err, "Token refresh failed")
		}
		writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
		return "", false
	}
	return token, true
}

func (s *Server) writeTicketError(w http.ResponseWriter, err error) {
	var rateErr *tickets.RateLimitError
	switch {
	case ierrors.Is(err, ierrors.ErrAuthenticationRequired):
		writeJSONError(w, "Not authenticated", http.StatusUnauthorized)
	case ierrors.As(err, &rateErr):
		if rateErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		}
		writeJSONError(w, "Rate limited by remote API", http.StatusTooManyRequests)
	default:
		log.Err(err).Msg("Ticket proxy call failed")
		writeJSONError(w, "Upstream request failed", http.StatusBadGateway)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
