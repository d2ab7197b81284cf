package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/cfscrape/models"
)

const (
	defaultClearanceInterval = time.Second
	defaultElementTimeout    = 15 * time.Second
)

// Extract opens a dedicated browser session, waits for the anti-bot
// clearance cookie, then reads the profile's property from the page.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Validate         – URL prefix and profile; nothing is launched on failure
//  2. Launch session   – fresh isolated browser
//  3. DEFER: release   – the only Close call, runs on every exit path
//  4. User agent       – desktop client identity (best-effort)
//  5. Navigate         – returns at DOMContentLoaded so polling starts early
//  6. Clearance poll   – cookie check, ClearanceAttempts × ClearanceInterval
//  7. Element wait     – profile selector, bounded by ElementTimeout
//  8. Extract          – read innerHTML / innerText
//
// Every returned error is a *models.ScrapeError carrying one of
// INVALID_URL, INVALID_INPUT, CLEARANCE_TIMEOUT, ELEMENT_TIMEOUT or
// EXTRACTION_FAILED.
func (e *Extractor) Extract(ctx context.Context, targetURL string, profile Profile) (*ExtractionResult, error) {
	start := time.Now()

	// ── 1. Validate ─────────────────────────────────────────────────
	if targetURL == "" || !strings.HasPrefix(targetURL, e.cfg.AllowedOrigin) {
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidURL,
			fmt.Sprintf("invalid Codeforces URL: must start with %s", e.cfg.AllowedOrigin),
			nil,
		)
	}
	ep, ok := profile.Lookup()
	if !ok {
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown extraction profile %q", profile),
			nil,
		)
	}

	log := slog.With("url", targetURL, "profile", string(profile))

	// ── 2. Launch session ───────────────────────────────────────────
	sess, err := e.launcher.Launch(ctx)
	if err != nil {
		return nil, categorizeError(err, "failed to launch browser session")
	}
	e.activeSessions.Add(1)
	e.totalSessions.Add(1)

	// ── 3. DEFER: release ───────────────────────────────────────────
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Warn("browser session teardown failed", "error", closeErr)
		}
		e.activeSessions.Add(-1)
		log.Debug("browser session released")
	}()

	// ── 4. User agent ───────────────────────────────────────────────
	if uaErr := sess.SetUserAgent(e.cfg.UserAgent); uaErr != nil {
		log.Warn("failed to set user agent, continuing", "error", uaErr)
	}

	// ── 5. Navigate ─────────────────────────────────────────────────
	log.Info("navigating to target")
	if err := sess.Navigate(ctx, targetURL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	// ── 6. Clearance poll ───────────────────────────────────────────
	attempts, err := e.waitForClearance(ctx, sess, log)
	if err != nil {
		log.Warn("clearance not obtained", "attempts", attempts, "error", err)
		return nil, err
	}
	clearanceDuration := time.Since(start)
	log.Info("clearance cookie observed", "attempts", attempts, "elapsed", clearanceDuration)

	// ── 7. Element wait ─────────────────────────────────────────────
	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.ElementTimeout)
	err = sess.WaitElement(waitCtx, ep.Selector)
	elementTimedOut := errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()
	if err != nil {
		if elementTimedOut {
			return nil, models.NewScrapeError(
				models.ErrCodeElementTimeout,
				fmt.Sprintf("element %q did not appear within %s", ep.Selector, e.cfg.ElementTimeout),
				err,
			)
		}
		return nil, categorizeError(err, "waiting for target element failed")
	}

	// ── 8. Extract ──────────────────────────────────────────────────
	content, err := sess.Property(ctx, ep.Selector, ep.Property)
	if err != nil {
		return nil, categorizeError(err, "failed to read element content")
	}

	if profile == ProfileSubmissionCode {
		log.Debug("scraped code", "preview", preview(content, 100))
	}
	log.Info("extraction complete", "bytes", len(content), "elapsed", time.Since(start))

	return &ExtractionResult{
		Content:           content,
		Profile:           profile,
		ClearanceAttempts: attempts,
		ClearanceDuration: clearanceDuration,
		TotalDuration:     time.Since(start),
	}, nil
}

// categorizeError folds any automation fault into EXTRACTION_FAILED so the
// API layer only ever sees the fixed taxonomy.
func categorizeError(err error, msg string) *models.ScrapeError {
	if errors.Is(err, context.Canceled) {
		return models.NewScrapeError(models.ErrCodeExtractionFailed, "request canceled", err)
	}
	return models.NewScrapeError(models.ErrCodeExtractionFailed, msg, err)
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
