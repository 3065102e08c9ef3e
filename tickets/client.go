// Package tickets is a read-only client for the remote issue-tracking
// REST API. It consumes bearer tokens produced by the auth workflow and
// interprets rate limiting from the remote API itself.
package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	ierrors "tracklight/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Ticket is the subset of an issue the dashboard displays.
type Ticket struct {
	Key     string    `json:"key"`
	Summary string    `json:"summary"`
	Status  string    `json:"status"`
	Updated time.Time `json:"updated"`
}

// RateLimitError reports a 429 from the remote API, carrying its
// Retry-After hint for the caller to pass through.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by remote API, retry after %s", e.RetryAfter)
}

// Client issues read queries against the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a ticket API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Search lists tickets matching a query. The query syntax is the remote
// API's own (JQL for Jira-family trackers) and is passed through as-is.
func (c *Client) Search(ctx context.Context, accessToken, query string, limit int) ([]Ticket, error) {
	params := url.Values{}
	if query != "" {
		params.Set("jql", query)
	}
	if limit > 0 {
		params.Set("maxResults", strconv.Itoa(limit))
	}

	var payload searchResponse
	if err := c.get(ctx, accessToken, "/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	result := make([]Ticket, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		result = append(result, issue.ticket())
	}
	return result, nil
}

// Get fetches a single ticket by key.
func (c *Client) Get(ctx context.Context, accessToken, key string) (*Ticket, error) {
	var payload issue
	if err := c.get(ctx, accessToken, "/issue/"+url.PathEscape(key), &payload); err != nil {
		return nil, err
	}
	ticket := payload.ticket()
	return &ticket, nil
}

func (c *Client) get(ctx context.Context, accessToken, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "[tickets.Client] build request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[tickets.Client] request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ierrors.ErrAuthenticationRequired
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("[tickets.Client] remote API status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[tickets.Client] decode response")
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Wire shapes of the remote API, decoded at the boundary.

type searchResponse struct {
	Issues []issue `json:"issues"`
}

type issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Updated string `json:"updated"`
	} `json:"fields"`
}

func (i issue) ticket() Ticket {
	updated, _ := time.Parse(time.RFC3339, i.Fields.Updated)
	return Ticket{
		Key:     i.Key,
		Summary: i.Fields.Summary,
		Status:  i.Fields.Status.Name,
		Updated: updated,
	}
}
