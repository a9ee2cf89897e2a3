package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Engine    EngineConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 10

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls scraping behavior.
type ScraperConfig struct {
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 120s

	// NavigationTimeout is the max time for page.Navigate alone.
	NavigationTimeout time.Duration // default: 15s

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad and tracking domains.
	BlockAds bool // default: true

	// MaxSnapshots caps the snapshots taken per page load.
	MaxSnapshots int // default: 4

	// SettleInterval is the DOM-stability window between snapshots.
	SettleInterval time.Duration // default: 500ms
}

// EngineConfig controls the multi-engine dispatcher.
type EngineConfig struct {
	// EnableMultiEngine puts the HTTP engine in front of the browser.
	EnableMultiEngine bool // default: true

	// HTTPTimeout is the deadline for the pure HTTP engine.
	HTTPTimeout time.Duration // default: 5s

	// StealthFallback appends a stealth browser engine to the chain.
	StealthFallback bool // default: true

	// DomainMemoryTTL is how long the accepted engine is remembered per host.
	DomainMemoryTTL time.Duration // default: 1h
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads .env files, then configuration from READER_* environment
// variables with sane defaults.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: envOr("READER_HOST", "0.0.0.0"),
			Port: envIntOr("READER_PORT", 8080),
			Mode: envOr("READER_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("READER_HEADLESS", true),
			MaxPages:     envIntOr("READER_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("READER_PROXY"),
			NoSandbox:    envBoolOr("READER_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("READER_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			DefaultTimeout:    envDurationOr("READER_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:        envDurationOr("READER_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("READER_NAV_TIMEOUT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("READER_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			BlockAds:       envBoolOr("READER_BLOCK_ADS", true),
			MaxSnapshots:   envIntOr("READER_MAX_SNAPSHOTS", 4),
			SettleInterval: envDurationOr("READER_SETTLE_INTERVAL", 500*time.Millisecond),
		},
		Engine: EngineConfig{
			EnableMultiEngine: envBoolOr("READER_MULTI_ENGINE", true),
			HTTPTimeout:       envDurationOr("READER_HTTP_TIMEOUT", 5*time.Second),
			StealthFallback:   envBoolOr("READER_STEALTH_FALLBACK", true),
			DomainMemoryTTL:   envDurationOr("READER_DOMAIN_MEMORY_TTL", time.Hour),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("READER_AUTH_ENABLED", true),
			APIKeys: envSliceOr("READER_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("READER_RATE_RPS", 5.0),
			Burst:             envIntOr("READER_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("READER_LOG_LEVEL", "info"),
			Format: envOr("READER_LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("config: READER_PORT %d out of range", c.Server.Port)
	case c.Browser.MaxPages < 1:
		return fmt.Errorf("config: READER_MAX_PAGES must be positive, got %d", c.Browser.MaxPages)
	case c.Scraper.MaxSnapshots < 1:
		return fmt.Errorf("config: READER_MAX_SNAPSHOTS must be positive, got %d", c.Scraper.MaxSnapshots)
	case c.Scraper.MaxTimeout < c.Scraper.DefaultTimeout:
		return fmt.Errorf("config: READER_MAX_TIMEOUT (%s) is below READER_DEFAULT_TIMEOUT (%s)",
			c.Scraper.MaxTimeout, c.Scraper.DefaultTimeout)
	}
	return nil
}

// loadEnvFiles loads .env files in priority order:
//  1. READER_ENV_FILE (if set, loads only this file)
//  2. .env.local
//  3. .env
//
// godotenv never overrides variables that are already set, so earlier files
// win. Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("READER_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
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
