package config

import (
	"log/slog"
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
	Extractor ExtractorConfig
	OAuth     OAuthConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 3000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how each per-request Chromium instance is launched.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless. Applies to every
	// extraction profile; set to false only for local debugging.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path, e.g. /usr/bin/chromium.
	BrowserBin string

	// Proxy is an optional upstream proxy for the browser.
	Proxy string

	// Stealth creates pages with the go-rod/stealth evasions applied.
	Stealth bool // default: true

	// ExtraHeaders are sent with every browser request.
	// Format: "Name=value;Name2=value2".
	ExtraHeaders map[string]string
}

// ExtractorConfig controls the protected-page extraction workflow.
type ExtractorConfig struct {
	// AllowedOrigin is the URL prefix every target URL must start with.
	AllowedOrigin string // default: "https://codeforces.com/"

	// ClearanceCookie is the cookie whose presence signals that the
	// anti-bot challenge has been cleared.
	ClearanceCookie string // default: "cf_clearance"

	// ClearanceAttempts is the number of cookie polls before giving up.
	ClearanceAttempts int // default: 60

	// ClearanceInterval is the pause between two cookie polls.
	ClearanceInterval time.Duration // default: 1s

	// ElementTimeout bounds the wait for the profile's selector.
	ElementTimeout time.Duration // default: 15s

	// UserAgent is the desktop client identity presented to the target.
	UserAgent string

	// SessionWarnThreshold marks the service degraded in /health once this
	// many browser sessions are open at the same time. 0 disables the check.
	SessionWarnThreshold int // default: 8
}

// OAuthConfig controls the GitHub code-for-token exchange.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string

	// TokenURL overrides GitHub's token endpoint (tests, GitHub Enterprise).
	TokenURL string

	// ExtensionIDs lists the browser extensions allowed to receive tokens.
	// The first entry is used when the callback carries no state.
	ExtensionIDs []string
}

// AuthConfig controls API key authentication for the scrape endpoints.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// CORSConfig controls cross-origin access for the browser extension.
type CORSConfig struct {
	AllowedOrigins []string // default: ["*"]
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// DefaultUserAgent is a current desktop Chrome identity.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory, if present, is loaded first and
// never overrides variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("CFSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("CFSCRAPE_PORT", 3000),
			Mode: envOr("CFSCRAPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("CFSCRAPE_HEADLESS", true),
			NoSandbox:    envBoolOr("CFSCRAPE_NO_SANDBOX", true),
			BrowserBin:   os.Getenv("CFSCRAPE_BROWSER_BIN"),
			Proxy:        os.Getenv("CFSCRAPE_PROXY"),
			Stealth:      envBoolOr("CFSCRAPE_STEALTH", true),
			ExtraHeaders: envMapOr("CFSCRAPE_EXTRA_HEADERS", nil),
		},
		Extractor: ExtractorConfig{
			AllowedOrigin:        envOr("CFSCRAPE_ALLOWED_ORIGIN", "https://codeforces.com/"),
			ClearanceCookie:      envOr("CFSCRAPE_CLEARANCE_COOKIE", "cf_clearance"),
			ClearanceAttempts:    envIntOr("CFSCRAPE_CLEARANCE_ATTEMPTS", 60),
			ClearanceInterval:    envDurationOr("CFSCRAPE_CLEARANCE_INTERVAL", time.Second),
			ElementTimeout:       envDurationOr("CFSCRAPE_ELEMENT_TIMEOUT", 15*time.Second),
			UserAgent:            envOr("CFSCRAPE_USER_AGENT", DefaultUserAgent),
			SessionWarnThreshold: envIntOr("CFSCRAPE_SESSION_WARN", 8),
		},
		OAuth: OAuthConfig{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			TokenURL:     os.Getenv("GITHUB_TOKEN_URL"),
			ExtensionIDs: envSliceOr("CFSCRAPE_EXTENSION_IDS", []string{"oalfhjhcbifihnhoppjkcjncmacgpdje"}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("CFSCRAPE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("CFSCRAPE_API_KEYS", nil),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("CFSCRAPE_CORS_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  envOr("CFSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("CFSCRAPE_LOG_FORMAT", "json"),
		},
	}
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

// envMapOr parses "k=v;k2=v2". Malformed pairs are skipped.
func envMapOr(key string, fallback map[string]string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	result := make(map[string]string)
	for _, pair := range strings.Split(v, ";") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		result[name] = strings.TrimSpace(value)
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
