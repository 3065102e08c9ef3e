package portalscout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tracklight/portalscout"
)

const resultPage = `<!DOCTYPE html>
<html>
<body>
<div class="result">
	<a href="https://acme.atlassian.net/servicedesk/customer/portal/1">Acme Support</a>
</div>
<div class="result">
	<a href="/url?q=https://globex.atlassian.net/servicedesk/customer/portal/4&amp;sa=U">Globex Helpdesk</a>
</div>
<div class="result">
	<a href="https://example.com/not-a-portal">Unrelated result</a>
</div>
<div class="result">
	<a href="/search?q=next">Next page</a>
</div>
<div class="result">
	<a href="https://acme.atlassian.net/servicedesk/customer/portal/1">Acme Support again</a>
</div>
</body>
</html>`

type pageRequest struct {
	query string
	start string
	auth  string
}

func newSearchStub(t *testing.T, body string) (*httptest.Server, *[]pageRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []pageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, pageRequest{
			query: r.URL.Query().Get("q"),
			start: r.URL.Query().Get("start"),
			auth:  r.Header.Get("Authorization"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

// TestNew_Validation tests configuration validation
func TestNew_Validation(t *testing.T) {
	_, err := portalscout.New(portalscout.Config{SearchEndpoint: "http://search.example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "query is required")

	_, err = portalscout.New(portalscout.Config{Queries: []string{"jira portal"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "search endpoint is required")

	_, err = portalscout.New(portalscout.Config{
		Queries:        []string{"jira portal"},
		SearchEndpoint: "http://search.example.com",
		PortalPattern:  "([unclosed",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid portal pattern")
}

// TestRun_ExtractsAndDeduplicates tests link extraction, redirect
// unwrapping, pattern filtering and dedup over one sweep
func TestRun_ExtractsAndDeduplicates(t *testing.T) {
	srv, _ := newSearchStub(t, resultPage)

	scout, err := portalscout.New(portalscout.Config{
		Queries:        []string{`"servicedesk/customer/portal"`},
		SearchEndpoint: srv.URL,
		Delay:          time.Millisecond,
		MaxPages:       1,
	})
	require.NoError(t, err)

	portals, err := scout.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, portals, 2)
	require.Equal(t, "https://acme.atlassian.net/servicedesk/customer/portal/1", portals[0].URL)
	require.Equal(t, "acme.atlassian.net", portals[0].Host)
	require.Equal(t, `"servicedesk/customer/portal"`, portals[0].Query)
	require.Equal(t, "https://globex.atlassian.net/servicedesk/customer/portal/4", portals[1].URL)
	require.Equal(t, "globex.atlassian.net", portals[1].Host)
}

// TestRun_PagesAndQueries tests the request pattern of a multi-page,
// multi-query sweep
func TestRun_PagesAndQueries(t *testing.T) {
	srv, requests := newSearchStub(t, resultPage)

	scout, err := portalscout.New(portalscout.Config{
		Queries:        []string{"query one", "query two"},
		SearchEndpoint: srv.URL,
		APIKey:         "search-key-1",
		Delay:          time.Millisecond,
		MaxPages:       2,
	})
	require.NoError(t, err)

	_, err = scout.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, *requests, 4)
	require.Equal(t, pageRequest{query: "query one", start: "", auth: "Bearer search-key-1"}, (*requests)[0])
	require.Equal(t, pageRequest{query: "query one", start: "10", auth: "Bearer search-key-1"}, (*requests)[1])
	require.Equal(t, pageRequest{query: "query two", start: "", auth: "Bearer search-key-1"}, (*requests)[2])
	require.Equal(t, pageRequest{query: "query two", start: "10", auth: "Bearer search-key-1"}, (*requests)[3])
}

// TestRun_BadPageDoesNotAbort tests that a failing page is skipped and
// the sweep continues
func TestRun_BadPageDoesNotAbort(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(resultPage))
	}))
	t.Cleanup(srv.Close)

	scout, err := portalscout.New(portalscout.Config{
		Queries:        []string{"jira portal"},
		SearchEndpoint: srv.URL,
		Delay:          time.Millisecond,
		MaxPages:       2,
	})
	require.NoError(t, err)

	portals, err := scout.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, portals, 2)
}

// TestRun_ContextCancel tests that cancellation stops the sweep and
// returns what was found so far
func TestRun_ContextCancel(t *testing.T) {
	srv, _ := newSearchStub(t, resultPage)

	scout, err := portalscout.New(portalscout.Config{
		Queries:        []string{"jira portal"},
		SearchEndpoint: srv.URL,
		Delay:          time.Hour, // cancellation must cut the wait short
		MaxPages:       3,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	portals, err := scout.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, portals, 2, "results found before cancellation are kept")
}
