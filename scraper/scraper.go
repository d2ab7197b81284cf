package scraper

import (
	"sync/atomic"

	"github.com/use-agent/cfscrape/config"
	"github.com/use-agent/cfscrape/engine"
	"github.com/use-agent/cfscrape/models"
)

// Extractor retrieves DOM fragments from challenge-protected pages.
//
// Every Extract call launches its own browser session and tears it down
// before returning; nothing is shared between calls except the usage
// counters. It is safe for concurrent use.
type Extractor struct {
	cfg      config.ExtractorConfig
	launcher engine.Launcher

	activeSessions atomic.Int32
	totalSessions  atomic.Int64
}

// NewExtractor creates an Extractor that opens sessions through launcher.
// Zero budgets in cfg fall back to the standard 60 × 1s clearance poll and
// 15s element wait.
func NewExtractor(cfg config.ExtractorConfig, launcher engine.Launcher) *Extractor {
	if cfg.ClearanceAttempts <= 0 {
		cfg.ClearanceAttempts = 60
	}
	if cfg.ClearanceInterval <= 0 {
		cfg.ClearanceInterval = defaultClearanceInterval
	}
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = defaultElementTimeout
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "https://codeforces.com/"
	}
	if cfg.ClearanceCookie == "" {
		cfg.ClearanceCookie = "cf_clearance"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	return &Extractor{cfg: cfg, launcher: launcher}
}

// Stats returns a snapshot of browser session usage.
func (e *Extractor) Stats() models.SessionStats {
	return models.SessionStats{
		ActiveSessions: int(e.activeSessions.Load()),
		TotalSessions:  e.totalSessions.Load(),
		WarnThreshold:  e.cfg.SessionWarnThreshold,
	}
}
