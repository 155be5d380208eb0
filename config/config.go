package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultListingURL is the Leipzig Book Fair 2026 exhibitor directory,
// asking the site for one large result page.
const DefaultListingURL = "https://www.leipziger-buchmesse.de/en/visit/exhibitors-directory/?limitSearchResults=1500&fair=buchmesse&catalog=EXHIBITOR"

// Config holds all application configuration.
type Config struct {
	Fair      FairConfig      `yaml:"fair"`
	Browser   BrowserConfig   `yaml:"browser"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Engine    EngineConfig    `yaml:"engine"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Webhook   WebhookConfig   `yaml:"webhook"`
}

// FairConfig describes the directory being scraped and where the table goes.
type FairConfig struct {
	// ListingURL is the exhibitor directory page.
	ListingURL string `yaml:"listing_url"`

	// DetailPathPattern is the substring every exhibitor profile href contains.
	DetailPathPattern string `yaml:"detail_path_pattern"` // default: "/exhibitors-products/exhibitor/"

	// OutputPath is the spreadsheet written at the end of a run.
	OutputPath string `yaml:"output_path"` // default: "Leipzig_Book_Fair_2026_Exhibitors.xlsx"

	// MaxRecords truncates the address list; 0 means no limit.
	MaxRecords int `yaml:"max_records"`

	// TestMode limits the run to TestLimit records.
	TestMode  bool `yaml:"test_mode"`
	TestLimit int  `yaml:"test_limit"` // default: 20
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int `yaml:"max_pages"` // default: 2

	// DefaultProxy is the proxy URL for all requests.
	DefaultProxy string `yaml:"proxy"`

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Stealth injects the go-rod/stealth evasions before each navigation.
	Stealth bool `yaml:"stealth"` // default: false

	// UserAgent is sent with every browser request.
	UserAgent string `yaml:"user_agent"`

	// AcceptLanguage is sent with every browser request.
	AcceptLanguage string `yaml:"accept_language"` // default: "en-US,en;q=0.9"
}

// ScraperConfig controls navigation, readiness polling and extraction.
type ScraperConfig struct {
	// NavigationTimeout bounds one page render (navigate + waits + read).
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 45s

	// ListingTimeout bounds the whole listing render including scrolling.
	ListingTimeout time.Duration `yaml:"listing_timeout"` // default: 3m

	// ReadyTimeout bounds the wait for the readiness selector.
	ReadyTimeout time.Duration `yaml:"ready_timeout"` // default: 10s

	// DetailReadySelector must match before a detail page is read.
	DetailReadySelector string `yaml:"detail_ready_selector"` // default: "h1"

	// MaxScrolls caps the scroll-to-bottom operations on the listing page.
	MaxScrolls int `yaml:"max_scrolls"` // default: 20

	// ScrollSettle is how long to poll for new anchors after one scroll.
	ScrollSettle time.Duration `yaml:"scroll_settle"` // default: 1s

	// ScrollIdleRounds stops scrolling after this many scrolls without growth.
	ScrollIdleRounds int `yaml:"scroll_idle_rounds"` // default: 3

	// RecordInterval paces consecutive detail pages.
	RecordInterval time.Duration `yaml:"record_interval"` // default: 500ms

	// ProgressEvery logs a progress line every N addresses.
	ProgressEvery int `yaml:"progress_every"` // default: 50

	// PhoneMinDigits rejects phone matches with fewer digits.
	PhoneMinDigits int `yaml:"phone_min_digits"` // default: 7

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`
}

// EngineConfig controls how detail pages are fetched.
type EngineConfig struct {
	// Engines is the ordered fallback list: "http", "rod", "rod-stealth".
	Engines []string `yaml:"engines"` // default: ["rod"]

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration `yaml:"http_timeout"` // default: 10s

	// MemoryTTL is how long a domain remembers its winning engine.
	MemoryTTL time.Duration `yaml:"memory_ttl"` // default: 1h
}

// StoreConfig controls the SQLite checkpoint store.
type StoreConfig struct {
	// Path enables the store when non-empty.
	Path string `yaml:"path"`

	// Resume skips addresses already present in the store.
	Resume bool `yaml:"resume"`
}

// ServerConfig controls the HTTP server of the serve command.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "127.0.0.1"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// CacheConfig controls the in-memory record cache of the extract endpoint.
type CacheConfig struct {
	// MaxEntries bounds the cache; 0 disables it.
	MaxEntries int `yaml:"max_entries"` // default: 1000
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"` // default: true
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 2
	Burst             int     `yaml:"burst"`               // default: 4
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// WebhookConfig controls the run.completed notification.
type WebhookConfig struct {
	URL    string `yaml:"url"`
	Secret string `yaml:"secret"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		Fair: FairConfig{
			ListingURL:        DefaultListingURL,
			DetailPathPattern: "/exhibitors-products/exhibitor/",
			OutputPath:        "Leipzig_Book_Fair_2026_Exhibitors.xlsx",
			TestLimit:         20,
		},
		Browser: BrowserConfig{
			Headless:       true,
			MaxPages:       2,
			NoSandbox:      true,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			AcceptLanguage: "en-US,en;q=0.9",
		},
		Scraper: ScraperConfig{
			NavigationTimeout:    45 * time.Second,
			ListingTimeout:       3 * time.Minute,
			ReadyTimeout:         10 * time.Second,
			DetailReadySelector:  "h1",
			MaxScrolls:           20,
			ScrollSettle:         time.Second,
			ScrollIdleRounds:     3,
			RecordInterval:       500 * time.Millisecond,
			ProgressEvery:        50,
			PhoneMinDigits:       7,
			BlockedResourceTypes: []string{"Image", "Font", "Media"},
		},
		Engine: EngineConfig{
			Engines:     []string{"rod"},
			HTTPTimeout: 10 * time.Second,
			MemoryTTL:   time.Hour,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Mode: "release",
		},
		Cache: CacheConfig{
			MaxEntries: 1000,
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration in layers: defaults, then the YAML file named
// by FAIRSCRAPE_CONFIG (if any), then FAIRSCRAPE_* environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("FAIRSCRAPE_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// EffectiveLimit returns the truncation applied to the address list.
func (c *Config) EffectiveLimit() int {
	if c.Fair.TestMode {
		if c.Fair.MaxRecords > 0 && c.Fair.MaxRecords < c.Fair.TestLimit {
			return c.Fair.MaxRecords
		}
		return c.Fair.TestLimit
	}
	return c.Fair.MaxRecords
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	f := &cfg.Fair
	f.ListingURL = envOr("FAIRSCRAPE_LISTING_URL", f.ListingURL)
	f.DetailPathPattern = envOr("FAIRSCRAPE_DETAIL_PATH", f.DetailPathPattern)
	f.OutputPath = envOr("FAIRSCRAPE_OUTPUT", f.OutputPath)
	f.MaxRecords = envIntOr("FAIRSCRAPE_MAX_RECORDS", f.MaxRecords)
	f.TestMode = envBoolOr("FAIRSCRAPE_TEST_MODE", f.TestMode)
	f.TestLimit = envIntOr("FAIRSCRAPE_TEST_LIMIT", f.TestLimit)

	b := &cfg.Browser
	b.Headless = envBoolOr("FAIRSCRAPE_HEADLESS", b.Headless)
	b.MaxPages = envIntOr("FAIRSCRAPE_MAX_PAGES", b.MaxPages)
	b.DefaultProxy = envOr("FAIRSCRAPE_PROXY", b.DefaultProxy)
	b.NoSandbox = envBoolOr("FAIRSCRAPE_NO_SANDBOX", b.NoSandbox)
	b.BrowserBin = envOr("FAIRSCRAPE_BROWSER_BIN", b.BrowserBin)
	b.Stealth = envBoolOr("FAIRSCRAPE_STEALTH", b.Stealth)
	b.UserAgent = envOr("FAIRSCRAPE_USER_AGENT", b.UserAgent)
	b.AcceptLanguage = envOr("FAIRSCRAPE_ACCEPT_LANGUAGE", b.AcceptLanguage)

	s := &cfg.Scraper
	s.NavigationTimeout = envDurationOr("FAIRSCRAPE_NAV_TIMEOUT", s.NavigationTimeout)
	s.ListingTimeout = envDurationOr("FAIRSCRAPE_LISTING_TIMEOUT", s.ListingTimeout)
	s.ReadyTimeout = envDurationOr("FAIRSCRAPE_READY_TIMEOUT", s.ReadyTimeout)
	s.DetailReadySelector = envOr("FAIRSCRAPE_DETAIL_READY_SELECTOR", s.DetailReadySelector)
	s.MaxScrolls = envIntOr("FAIRSCRAPE_MAX_SCROLLS", s.MaxScrolls)
	s.ScrollSettle = envDurationOr("FAIRSCRAPE_SCROLL_SETTLE", s.ScrollSettle)
	s.ScrollIdleRounds = envIntOr("FAIRSCRAPE_SCROLL_IDLE_ROUNDS", s.ScrollIdleRounds)
	s.RecordInterval = envDurationOr("FAIRSCRAPE_RECORD_INTERVAL", s.RecordInterval)
	s.ProgressEvery = envIntOr("FAIRSCRAPE_PROGRESS_EVERY", s.ProgressEvery)
	s.PhoneMinDigits = envIntOr("FAIRSCRAPE_PHONE_MIN_DIGITS", s.PhoneMinDigits)
	s.BlockedResourceTypes = envSliceOr("FAIRSCRAPE_BLOCKED_RESOURCES", s.BlockedResourceTypes)

	e := &cfg.Engine
	e.Engines = envSliceOr("FAIRSCRAPE_ENGINES", e.Engines)
	e.HTTPTimeout = envDurationOr("FAIRSCRAPE_HTTP_TIMEOUT", e.HTTPTimeout)
	e.MemoryTTL = envDurationOr("FAIRSCRAPE_ENGINE_MEMORY_TTL", e.MemoryTTL)

	cfg.Store.Path = envOr("FAIRSCRAPE_DB_PATH", cfg.Store.Path)
	cfg.Store.Resume = envBoolOr("FAIRSCRAPE_RESUME", cfg.Store.Resume)

	cfg.Server.Host = envOr("FAIRSCRAPE_HOST", cfg.Server.Host)
	cfg.Server.Port = envIntOr("FAIRSCRAPE_PORT", cfg.Server.Port)
	cfg.Server.Mode = envOr("FAIRSCRAPE_MODE", cfg.Server.Mode)

	cfg.Cache.MaxEntries = envIntOr("FAIRSCRAPE_CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	cfg.Auth.Enabled = envBoolOr("FAIRSCRAPE_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.APIKeys = envSliceOr("FAIRSCRAPE_API_KEYS", cfg.Auth.APIKeys)

	cfg.RateLimit.RequestsPerSecond = envFloatOr("FAIRSCRAPE_RATE_RPS", cfg.RateLimit.RequestsPerSecond)
	cfg.RateLimit.Burst = envIntOr("FAIRSCRAPE_RATE_BURST", cfg.RateLimit.Burst)

	cfg.Log.Level = envOr("FAIRSCRAPE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOr("FAIRSCRAPE_LOG_FORMAT", cfg.Log.Format)

	cfg.Webhook.URL = envOr("FAIRSCRAPE_WEBHOOK_URL", cfg.Webhook.URL)
	cfg.Webhook.Secret = envOr("FAIRSCRAPE_WEBHOOK_SECRET", cfg.Webhook.Secret)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
