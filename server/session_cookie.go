package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"tracklight/sessions"
)

// sessionCookieName is the cookie that keys the server-side session store.
const sessionCookieName = "tracklight_session"

// ensureSession returns the browser's session, creating a fresh one
// when the cookie is missing or no longer resolves to a live session.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (*sessions.Session, error) {
	if session := s.currentSession(r); session != nil {
		return session, nil
	}

	now := time.Now()
	session := &sessions.Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.GetSessionTTL()),
	}
	if err := s.sessions.Upsert(session); err != nil {
		return nil, err
	}
	s.setSessionCookie(w, r, session.ID)
	return session, nil
}

// currentSession resolves the session cookie without creating anything.
// Returns nil when the browser has no live session.
func (s *Server) currentSession(r *http.Request) *sessions.Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	session, err := s.sessions.Get(cookie.Value)
	if err != nil {
		return nil
	}
	return session
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(s.config.GetSessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// redirectWithError sends the browser to the error page with a
// human-readable reason in the query string.
func redirectWithError(w http.ResponseWriter, r *http.Request, errorMsg string) {
	http.Redirect(w, r, RouteAuthError+"?error="+url.QueryEscape(errorMsg), http.StatusFound)
}
