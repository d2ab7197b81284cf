package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/cfscrape/engine"
	"github.com/use-agent/cfscrape/models"
)

// waitForClearance polls the session's cookies until the clearance cookie
// appears. The challenge issues the cookie asynchronously after its
// interstitial, and cookie state is the only reliable success signal.
//
// At most ClearanceAttempts reads are made, each failed one followed by a
// ClearanceInterval sleep, so a timeout is reported only after the full
// attempts × interval budget. It returns the 1-based attempt on which the
// cookie was seen.
func (e *Extractor) waitForClearance(ctx context.Context, sess engine.Session, log *slog.Logger) (int, error) {
	maxAttempts := e.cfg.ClearanceAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		cookies, err := sess.Cookies(ctx)
		if err != nil {
			return attempt, categorizeError(err, "failed to read session cookies")
		}
		if engine.HasCookie(cookies, e.cfg.ClearanceCookie) {
			return attempt, nil
		}
		log.Debug("waiting for clearance cookie",
			"cookie", e.cfg.ClearanceCookie,
			"attempt", attempt,
			"max_attempts", maxAttempts,
		)
		if !sleepWithContext(ctx, e.cfg.ClearanceInterval) {
			return attempt, categorizeError(ctx.Err(), "clearance wait interrupted")
		}
	}

	return maxAttempts, models.NewScrapeError(
		models.ErrCodeClearanceTimeout,
		fmt.Sprintf("%s cookie was not detected after %d attempts (%s)",
			e.cfg.ClearanceCookie, maxAttempts, time.Duration(maxAttempts)*e.cfg.ClearanceInterval),
		nil,
	)
}

// sleepWithContext sleeps for d or until ctx is done. It reports whether
// the full duration elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
