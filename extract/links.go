package extract

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// AnchorSelector returns the CSS selector matching anchors whose href
// contains pattern.
func AnchorSelector(pattern string) string {
	return "a[href*=" + strconv.Quote(pattern) + "]"
}

// ExhibitorLinks parses the rendered listing HTML and returns the addresses
// of all anchors whose href contains pattern, resolved against baseURL.
// Addresses are de-duplicated by exact string, keeping first-seen order.
func ExhibitorLinks(rawHTML, baseURL, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("extract: empty detail path pattern")
	}
	sel, err := cascadia.Parse(AnchorSelector(pattern))
	if err != nil {
		return nil, fmt.Errorf("extract: anchor selector: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse listing HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("extract: parse base URL %q: %w", baseURL, err)
	}

	seen := make(map[string]struct{})
	links := []string{}
	for _, n := range cascadia.QueryAll(doc, sel) {
		href := strings.TrimSpace(attr(n, "href"))
		if href == "" {
			continue
		}
		resolved, err := base.Parse(href)
		if err != nil {
			continue
		}
		abs := resolved.String()
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	}
	return links, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
