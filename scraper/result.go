package scraper

import "time"

// ExtractionResult is the outcome of one successful extraction.
type ExtractionResult struct {
	// Content is an HTML fragment or plain text, depending on Profile.
	Content string

	Profile Profile

	// ClearanceAttempts is the number of cookie polls it took to observe
	// the clearance cookie.
	ClearanceAttempts int

	// ClearanceDuration covers navigation plus the clearance wait.
	ClearanceDuration time.Duration

	// TotalDuration is launch-to-extraction, excluding teardown.
	TotalDuration time.Duration
}
