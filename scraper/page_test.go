package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/fairscrape/engine"
	"github.com/use-agent/fairscrape/models"
)

func TestCategorizeError(t *testing.T) {
	typed := models.NewScrapeError(models.ErrCodeBrowserCrash, "tab died", nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), models.ErrCodeTimeout},
		{"canceled", context.Canceled, models.ErrCodeTimeout},
		{"navigation", errors.New("net::ERR_NAME_NOT_RESOLVED"), models.ErrCodeNavigation},
		{"already typed", fmt.Errorf("rod: %w", typed), models.ErrCodeBrowserCrash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizeError(tt.err, "navigation failed")
			if got.Code != tt.want {
				t.Errorf("Code = %q, want %q", got.Code, tt.want)
			}
			if !errors.Is(got, tt.err) && !errors.Is(tt.err, got) {
				t.Errorf("categorized error lost its cause: %v", got)
			}
		})
	}
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	if got := m["Accept-Language"].Str(); got != "en-US,en;q=0.9" {
		t.Errorf("Accept-Language = %q", got)
	}
}

func TestToPage(t *testing.T) {
	res := &engine.FetchResult{
		HTML:       "<h1>x</h1>",
		Text:       "x",
		Title:      "t",
		FinalURL:   "https://fair.example/x?lang=en",
		EngineName: "http",
	}
	p := toPage("https://fair.example/x", res)
	if p.URL != "https://fair.example/x" || p.FinalURL != res.FinalURL {
		t.Errorf("URL=%q FinalURL=%q", p.URL, p.FinalURL)
	}
	if p.HTML != res.HTML || p.Text != "x" || p.Engine != "http" {
		t.Errorf("unexpected page %+v", p)
	}
}

func TestResourceTypes(t *testing.T) {
	for _, name := range []string{"Image", "Font", "Media", "Stylesheet"} {
		if _, ok := resourceTypes[name]; !ok {
			t.Errorf("resource type %q not mapped", name)
		}
	}
	if _, ok := resourceTypes["Script"]; ok {
		t.Error("scripts must never be blockable: the listing is rendered by JavaScript")
	}
	if resourceTypes["Image"] != proto.NetworkResourceTypeImage {
		t.Error("Image mapped to wrong protocol type")
	}
}
