package sessions_test

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ierrors "tracklight/internal/errors"
	"tracklight/sessions"
)

const testSessionID = "session-1"

func newTestSession(ttl time.Duration) *sessions.Session {
	now := time.Now()
	return &sessions.Session{
		ID:        testSessionID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func newTestRepo(t *testing.T) *sessions.InMemoryRepo {
	t.Helper()
	repo := sessions.NewInMemoryRepo()
	t.Cleanup(repo.Stop)
	return repo
}

// TestUpsertGet_RoundTrip tests basic store and retrieve
func TestUpsertGet_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	session := newTestSession(time.Hour)
	require.NoError(t, repo.Upsert(session))

	got, err := repo.Get(testSessionID)
	require.NoError(t, err)
	require.Equal(t, testSessionID, got.ID)
	require.Nil(t, got.PKCE)
	require.Nil(t, got.Token)
}

// TestUpsert_Validation tests rejection of nil and unkeyed sessions
func TestUpsert_Validation(t *testing.T) {
	repo := newTestRepo(t)

	require.Error(t, repo.Upsert(nil))
	require.Error(t, repo.Upsert(&sessions.Session{}))
}

// TestGet_NotFound tests retrieval of an unknown session
func TestGet_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get("unknown")
	require.ErrorIs(t, err, ierrors.ErrSessionNotFound)

	_, err = repo.Get("")
	require.ErrorIs(t, err, ierrors.ErrSessionNotFound)
}

// TestGet_Expired tests that a session past its TTL is treated as
// absent and removed
func TestGet_Expired(t *testing.T) {
	repo := newTestRepo(t)

	session := newTestSession(-time.Minute)
	require.NoError(t, repo.Upsert(session))

	_, err := repo.Get(testSessionID)
	require.ErrorIs(t, err, ierrors.ErrSessionExpired)

	// A second read finds nothing at all.
	_, err = repo.Get(testSessionID)
	require.ErrorIs(t, err, ierrors.ErrSessionNotFound)
}

// TestDelete_Idempotent tests that deleting twice is not an error
func TestDelete_Idempotent(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Upsert(newTestSession(time.Hour)))
	require.NoError(t, repo.Delete(testSessionID))
	require.NoError(t, repo.Delete(testSessionID))

	_, err := repo.Get(testSessionID)
	require.ErrorIs(t, err, ierrors.ErrSessionNotFound)
}

// TestSetClearPKCE tests PKCE record lifecycle on a session
func TestSetClearPKCE(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Upsert(newTestSession(time.Hour)))

	record := &sessions.PKCERecord{
		CodeVerifier: "verifier",
		State:        "state",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.SetPKCE(testSessionID, record))

	got, err := repo.Get(testSessionID)
	require.NoError(t, err)
	require.NotNil(t, got.PKCE)
	require.Equal(t, "verifier", got.PKCE.CodeVerifier)
	require.Equal(t, "state", got.PKCE.State)

	// A new attempt overwrites the pending record.
	require.NoError(t, repo.SetPKCE(testSessionID, &sessions.PKCERecord{State: "state-2"}))
	got, err = repo.Get(testSessionID)
	require.NoError(t, err)
	require.Equal(t, "state-2", got.PKCE.State)

	require.NoError(t, repo.ClearPKCE(testSessionID))
	got, err = repo.Get(testSessionID)
	require.NoError(t, err)
	require.Nil(t, got.PKCE)
}

// TestSetClearToken tests token record lifecycle on a session
func TestSetClearToken(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Upsert(newTestSession(time.Hour)))

	record := &sessions.TokenRecord{
		AccessToken:  "a1",
		RefreshToken: "r1",
		ExpiresAt:    time.Now().Add(time.Hour),
		Scope:        "read:jira-work",
	}
	require.NoError(t, repo.SetToken(testSessionID, record))

	got, err := repo.Get(testSessionID)
	require.NoError(t, err)
	require.NotNil(t, got.Token)
	require.Equal(t, "a1", got.Token.AccessToken)
	require.Equal(t, "r1", got.Token.RefreshToken)

	require.NoError(t, repo.ClearToken(testSessionID))
	got, err = repo.Get(testSessionID)
	require.NoError(t, err)
	require.Nil(t, got.Token)
}

// TestUpdate_UnknownSession tests accessor calls against an absent
// session
func TestUpdate_UnknownSession(t *testing.T) {
	repo := newTestRepo(t)

	require.ErrorIs(t, repo.SetPKCE("unknown", &sessions.PKCERecord{}), ierrors.ErrSessionNotFound)
	require.ErrorIs(t, repo.ClearPKCE("unknown"), ierrors.ErrSessionNotFound)
	require.ErrorIs(t, repo.SetToken("unknown", &sessions.TokenRecord{}), ierrors.ErrSessionNotFound)
	require.ErrorIs(t, repo.ClearToken("unknown"), ierrors.ErrSessionNotFound)
}

// TestGet_ReturnsCopies tests that mutating a retrieved session does
// not leak back into the store
func TestGet_ReturnsCopies(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Upsert(newTestSession(time.Hour)))
	require.NoError(t, repo.SetToken(testSessionID, &sessions.TokenRecord{AccessToken: "a1"}))

	got, err := repo.Get(testSessionID)
	require.NoError(t, err)
	got.Token.AccessToken = "tampered"
	got.PKCE = &sessions.PKCERecord{State: "tampered"}

	fresh, err := repo.Get(testSessionID)
	require.NoError(t, err)
	require.Equal(t, "a1", fresh.Token.AccessToken)
	require.Nil(t, fresh.PKCE)
}

// TestGet_ConcurrentWithUpdates tests that reads and in-place record
// updates on one session are safe to run simultaneously, as two
// requests for the same session do on the refresh path. Run with the
// race detector.
func TestGet_ConcurrentWithUpdates(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Upsert(newTestSession(time.Hour)))
	require.NoError(t, repo.SetToken(testSessionID, &sessions.TokenRecord{AccessToken: "a0"}))

	const workers = 8
	const iterations = 200

	var wg sync.WaitGroup
	readErrs := make([]error, workers)
	writeErrs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < iterations; n++ {
				session, err := repo.Get(testSessionID)
				if err != nil {
					readErrs[i] = err
					return
				}
				if session.Token == nil || session.Token.AccessToken == "" {
					readErrs[i] = errors.New("read a session with a missing token")
					return
				}
			}
		}(i)

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < iterations; n++ {
				record := &sessions.TokenRecord{
					AccessToken:  "a" + strconv.Itoa(n),
					RefreshToken: "r" + strconv.Itoa(n),
					ExpiresAt:    time.Now().Add(time.Hour),
				}
				if err := repo.SetToken(testSessionID, record); err != nil {
					writeErrs[i] = err
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, readErrs[i])
		require.NoError(t, writeErrs[i])
	}
}

// TestUpsert_StoresCopy tests that mutating the input after Upsert does
// not affect the stored session
func TestUpsert_StoresCopy(t *testing.T) {
	repo := newTestRepo(t)

	session := newTestSession(time.Hour)
	session.Token = &sessions.TokenRecord{AccessToken: "a1"}
	require.NoError(t, repo.Upsert(session))

	session.Token.AccessToken = "tampered"

	got, err := repo.Get(testSessionID)
	require.NoError(t, err)
	require.Equal(t, "a1", got.Token.AccessToken)
}
