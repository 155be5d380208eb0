package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FAIRSCRAPE_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Fair.ListingURL != DefaultListingURL {
		t.Errorf("ListingURL = %q, want default", cfg.Fair.ListingURL)
	}
	if cfg.Fair.DetailPathPattern != "/exhibitors-products/exhibitor/" {
		t.Errorf("DetailPathPattern = %q", cfg.Fair.DetailPathPattern)
	}
	if cfg.Fair.OutputPath != "Leipzig_Book_Fair_2026_Exhibitors.xlsx" {
		t.Errorf("OutputPath = %q", cfg.Fair.OutputPath)
	}
	if cfg.Scraper.MaxScrolls != 20 {
		t.Errorf("MaxScrolls = %d, want 20", cfg.Scraper.MaxScrolls)
	}
	if cfg.Scraper.ProgressEvery != 50 {
		t.Errorf("ProgressEvery = %d, want 50", cfg.Scraper.ProgressEvery)
	}
	if cfg.Scraper.RecordInterval != 500*time.Millisecond {
		t.Errorf("RecordInterval = %v, want 500ms", cfg.Scraper.RecordInterval)
	}
	if len(cfg.Engine.Engines) != 1 || cfg.Engine.Engines[0] != "rod" {
		t.Errorf("Engines = %v, want [rod]", cfg.Engine.Engines)
	}
	if cfg.Cache.MaxEntries != 1000 {
		t.Errorf("Cache.MaxEntries = %d, want 1000", cfg.Cache.MaxEntries)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FAIRSCRAPE_CONFIG", "")
	t.Setenv("FAIRSCRAPE_MAX_RECORDS", "5")
	t.Setenv("FAIRSCRAPE_HEADLESS", "false")
	t.Setenv("FAIRSCRAPE_RECORD_INTERVAL", "2s")
	t.Setenv("FAIRSCRAPE_ENGINES", "http, rod ,")
	t.Setenv("FAIRSCRAPE_PROGRESS_EVERY", "not-a-number")
	t.Setenv("FAIRSCRAPE_CACHE_MAX_ENTRIES", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Fair.MaxRecords != 5 {
		t.Errorf("MaxRecords = %d, want 5", cfg.Fair.MaxRecords)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be false")
	}
	if cfg.Scraper.RecordInterval != 2*time.Second {
		t.Errorf("RecordInterval = %v, want 2s", cfg.Scraper.RecordInterval)
	}
	if got := cfg.Engine.Engines; len(got) != 2 || got[0] != "http" || got[1] != "rod" {
		t.Errorf("Engines = %v, want [http rod]", got)
	}
	if cfg.Scraper.ProgressEvery != 50 {
		t.Errorf("invalid int should keep default, got %d", cfg.Scraper.ProgressEvery)
	}
	if cfg.Cache.MaxEntries != 0 {
		t.Errorf("Cache.MaxEntries = %d, want 0", cfg.Cache.MaxEntries)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fairscrape.yml")
	content := `
fair:
  listing_url: https://fair.example/exhibitors
  output_path: out.csv
scraper:
  scroll_settle: 250ms
  max_scrolls: 4
log:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAIRSCRAPE_CONFIG", path)
	t.Setenv("FAIRSCRAPE_MAX_SCROLLS", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Fair.ListingURL != "https://fair.example/exhibitors" {
		t.Errorf("ListingURL = %q", cfg.Fair.ListingURL)
	}
	if cfg.Fair.OutputPath != "out.csv" {
		t.Errorf("OutputPath = %q", cfg.Fair.OutputPath)
	}
	if cfg.Scraper.ScrollSettle != 250*time.Millisecond {
		t.Errorf("ScrollSettle = %v, want 250ms", cfg.Scraper.ScrollSettle)
	}
	if cfg.Scraper.MaxScrolls != 9 {
		t.Errorf("env should win over file: MaxScrolls = %d", cfg.Scraper.MaxScrolls)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	// Untouched sections keep their defaults.
	if cfg.Scraper.DetailReadySelector != "h1" {
		t.Errorf("DetailReadySelector = %q, want h1", cfg.Scraper.DetailReadySelector)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("FAIRSCRAPE_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEffectiveLimit(t *testing.T) {
	tests := []struct {
		name       string
		testMode   bool
		maxRecords int
		want       int
	}{
		{"full run", false, 0, 0},
		{"explicit limit", false, 100, 100},
		{"test mode", true, 0, 20},
		{"test mode with smaller limit", true, 5, 5},
		{"test mode with larger limit", true, 500, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Fair.TestMode = tt.testMode
			cfg.Fair.MaxRecords = tt.maxRecords
			if got := cfg.EffectiveLimit(); got != tt.want {
				t.Errorf("EffectiveLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}
