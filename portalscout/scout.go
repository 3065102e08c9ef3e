// Package portalscout discovers public service-desk portal URLs by
// walking web search result pages. It is an independent batch tool with
// no dependency on the session or token core: input is static
// configuration, output is a deduplicated list of portals.
package portalscout

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultDelay    = 2 * time.Second
	defaultMaxPages = 3
	defaultTimeout  = 15 * time.Second
	resultsPerPage  = 10
)

// Config is the static input of a discovery run.
type Config struct {
	// Queries are the search strings, one sweep per query.
	Queries []string

	// SearchEndpoint is the HTML search endpoint to scrape. The query
	// goes in the "q" parameter and paging in "start".
	SearchEndpoint string

	// APIKey is sent as a bearer header when the search provider
	// requires one. Optional.
	APIKey string

	// PortalPattern matches URLs that count as portals. Defaults to
	// hosted Jira Service Management portals.
	PortalPattern string

	// Delay between consecutive page fetches.
	Delay time.Duration

	// MaxPages caps result pages per query.
	MaxPages int

	UserAgent string
}

// Portal is one discovered portal URL.
type Portal struct {
	URL   string `json:"url"`
	Host  string `json:"host"`
	Query string `json:"query"`
}

// Scout runs the discovery sweep.
type Scout struct {
	cfg        Config
	pattern    *regexp.Regexp
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

// defaultPortalPattern matches hosted service-desk portals under a
// customer subdomain.
const defaultPortalPattern = `^https?://[a-z0-9-]+\.atlassian\.net/servicedesk/customer/portal`

// New creates a Scout from configuration, applying defaults.
func New(cfg Config) (*Scout, error) {
	if len(cfg.Queries) == 0 {
		return nil, errors.New("[portalscout.New] at least one query is required")
	}
	if cfg.SearchEndpoint == "" {
		return nil, errors.New("[portalscout.New] search endpoint is required")
	}
	if cfg.PortalPattern == "" {
		cfg.PortalPattern = defaultPortalPattern
	}
	pattern, err := regexp.Compile(cfg.PortalPattern)
	if err != nil {
		return nil, errors.Wrap(err, "[portalscout.New] invalid portal pattern")
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDelay
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tracklight-portalscout/1.0"
	}

	return &Scout{
		cfg:        cfg,
		pattern:    pattern,
		httpClient: &http.Client{Timeout: defaultTimeout},
		sleep:      sleepCtx,
	}, nil
}

// Run walks every query sequentially with a fixed delay between page
// fetches and returns the deduplicated portals found.
func (s *Scout) Run(ctx context.Context) ([]Portal, error) {
	seen := make(map[string]Portal)

	for _, query := range s.cfg.Queries {
		for page := 0; page < s.cfg.MaxPages; page++ {
			links, err := s.fetchPage(ctx, query, page)
			if err != nil {
				// One bad page does not abort the sweep.
				log.Warn().Err(err).Str("query", query).Int("page", page).Msg("Search page fetch failed")
			}
			for _, link := range links {
				if portal, ok := s.asPortal(link, query); ok {
					if _, dup := seen[portal.URL]; !dup {
						seen[portal.URL] = portal
					}
				}
			}

			if err := s.sleep(ctx, s.cfg.Delay); err != nil {
				return sorted(seen), err
			}
		}
	}

	return sorted(seen), nil
}

func (s *Scout) fetchPage(ctx context.Context, query string, page int) ([]string, error) {
	endpoint, err := url.Parse(s.cfg.SearchEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "parse search endpoint")
	}
	params := endpoint.Query()
	params.Set("q", query)
	if page > 0 {
		params.Set("start", strconv.Itoa(page*resultsPerPage))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	return extractLinks(resp.Body)
}

func (s *Scout) asPortal(link, query string) (Portal, bool) {
	if !s.pattern.MatchString(link) {
		return Portal{}, false
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return Portal{}, false
	}
	return Portal{URL: link, Host: parsed.Hostname(), Query: query}, true
}

func sorted(seen map[string]Portal) []Portal {
	portals := make([]Portal, 0, len(seen))
	for _, p := range seen {
		portals = append(portals, p)
	}
	sort.Slice(portals, func(i, j int) bool { return portals[i].URL < portals[j].URL })
	return portals
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
