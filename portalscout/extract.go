package portalscout

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// extractLinks pulls candidate result URLs out of a search result page.
// Search engines wrap result links in redirect URLs ("/url?q=..."), so
// both direct anchors and wrapped targets are collected.
func extractLinks(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse search result page")
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if link := normalizeLink(href); link != "" {
			links = append(links, link)
		}
	})
	return links, nil
}

func normalizeLink(href string) string {
	// Unwrap engine redirect links.
	if strings.HasPrefix(href, "/url?") {
		parsed, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = parsed.Query().Get("q")
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}
