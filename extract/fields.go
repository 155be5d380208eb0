// Package extract turns a rendered exhibitor page into an ExhibitorRecord.
//
// Structured markup (mailto:/tel: links, URL-text anchors, <address>) is
// preferred; regular-expression scans over the visible text are the
// fallback. Label lookups match an element's own text, the way an XPath
// contains(text(), ...) query does.
package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/fairscrape/models"
)

var (
	emailPattern   = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern   = regexp.MustCompile(`[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}`)
	websitePattern = regexp.MustCompile(`https?://[^\s<>"]+|www\.[^\s<>"]+`)
	urlTextPattern = regexp.MustCompile(`^(?:https?://|www\.)[^\s<>"]+$`)
)

// Labels searched in an element's own text.
var (
	countryLabels = []string{"Country"}
	hallLabels    = []string{"Hall", "Stand"}
	contactLabels = []string{"Contact", "Representative"}
	addressLabels = []string{"Address"}
)

// Extractor pulls the exhibitor field set out of a rendered page.
type Extractor struct {
	// PhoneMinDigits rejects phone matches with fewer digits. Zero keeps the
	// first raw match, which also catches stand numbers, years and postcodes.
	PhoneMinDigits int
}

// NewExtractor creates an Extractor.
func NewExtractor(phoneMinDigits int) *Extractor {
	return &Extractor{PhoneMinDigits: phoneMinDigits}
}

// Extract returns a record for page. Every field is computed independently;
// a field that cannot be found or fails is left empty. URL is page.URL.
func (e *Extractor) Extract(page *models.Page) models.ExhibitorRecord {
	rec := models.ExhibitorRecord{URL: page.URL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		slog.Debug("detail page HTML could not be parsed", "url", page.URL, "error", err)
		doc = nil
	}

	text := page.Text
	if text == "" && doc != nil {
		// Frameset documents have no body.
		root := doc.Find("body")
		if root.Length() == 0 {
			root = doc.Selection
		}
		if root.Length() > 0 {
			text = VisibleText(root.Get(0))
		}
	}

	rec.Name = guard("name", func() string { return firstHeading(doc) })
	rec.Email = guard("email", func() string { return firstEmail(doc, text) })
	rec.Phone = guard("phone", func() string { return e.firstPhone(doc, text) })
	rec.Website = guard("website", func() string { return firstWebsite(doc, text) })
	rec.Country = guard("country", func() string { return labelSibling(doc, countryLabels) })
	rec.HallStand = guard("hall_stand", func() string { return labelText(doc, hallLabels) })
	rec.ContactPerson = guard("contact_person", func() string { return labelText(doc, contactLabels) })
	rec.Address = guard("address", func() string { return address(doc) })
	return rec
}

// guard runs one field lookup and swallows any panic, leaving the field empty.
func guard(field string, fn func() string) (v string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("field extraction failed", "field", field, "panic", r)
			v = ""
		}
	}()
	return fn()
}

func firstHeading(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return ""
	}
	return singleLine(VisibleText(h1.Get(0)), " ")
}

// firstEmail prefers a mailto: anchor that displays an address, then the
// first address in the visible text, then any other mailto: anchor.
func firstEmail(doc *goquery.Document, text string) string {
	var shown, hidden string
	if doc != nil {
		doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			addr := mailtoAddress(href)
			if addr == "" {
				return true
			}
			if emailPattern.MatchString(s.Text()) {
				shown = addr
				return false
			}
			if hidden == "" {
				hidden = addr
			}
			return true
		})
	}
	if shown != "" {
		return shown
	}
	if m := emailPattern.FindString(text); m != "" {
		return m
	}
	return hidden
}

// mailtoAddress returns the address of a mailto: href, or "" if it holds none.
func mailtoAddress(href string) string {
	addr := strings.TrimPrefix(href, "mailto:")
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	if unescaped, err := url.PathUnescape(addr); err == nil {
		addr = unescaped
	}
	addr = strings.TrimSpace(addr)
	if !emailPattern.MatchString(addr) {
		return ""
	}
	return addr
}

func (e *Extractor) firstPhone(doc *goquery.Document, text string) string {
	if doc != nil {
		var phone string
		doc.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if shown := singleLine(s.Text(), " "); e.plausiblePhone(shown) {
				phone = shown
				return false
			}
			href, _ := s.Attr("href")
			number := strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
			if unescaped, err := url.PathUnescape(number); err == nil {
				number = unescaped
			}
			if e.plausiblePhone(number) {
				phone = number
				return false
			}
			return true
		})
		if phone != "" {
			return phone
		}
	}

	// Lines are scanned separately so a match never joins two blocks.
	for _, line := range splitLines(text) {
		for _, m := range phonePattern.FindAllString(line, -1) {
			m = strings.TrimSpace(m)
			if e.PhoneMinDigits <= 0 || countDigits(m) >= e.PhoneMinDigits {
				return m
			}
		}
	}
	return ""
}

func (e *Extractor) plausiblePhone(s string) bool {
	n := countDigits(s)
	return n > 0 && n >= e.PhoneMinDigits
}

func firstWebsite(doc *goquery.Document, text string) string {
	if doc != nil {
		var site string
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			shown := strings.TrimSpace(s.Text())
			if urlTextPattern.MatchString(shown) {
				site = shown
				return false
			}
			return true
		})
		if site != "" {
			return site
		}
	}
	return websitePattern.FindString(text)
}

// findLabeled returns the first body element, in document order, whose own
// text contains one of labels.
func findLabeled(doc *goquery.Document, labels []string) *goquery.Selection {
	if doc == nil {
		return nil
	}
	var found *goquery.Selection
	doc.Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		if isHidden(n) {
			return true
		}
		own := ownText(n)
		for _, l := range labels {
			if strings.Contains(own, l) {
				found = s
				return false
			}
		}
		return true
	})
	return found
}

func labelText(doc *goquery.Document, labels []string) string {
	s := findLabeled(doc, labels)
	if s == nil {
		return ""
	}
	return singleLine(VisibleText(s.Get(0)), ", ")
}

func labelSibling(doc *goquery.Document, labels []string) string {
	s := findLabeled(doc, labels)
	if s == nil {
		return ""
	}
	next := s.Next()
	if next.Length() == 0 {
		return ""
	}
	return singleLine(VisibleText(next.Get(0)), ", ")
}

func address(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	if a := doc.Find("address").First(); a.Length() > 0 {
		if v := singleLine(VisibleText(a.Get(0)), ", "); v != "" {
			return v
		}
	}
	return labelSibling(doc, addressLabels)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
