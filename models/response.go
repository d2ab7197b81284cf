package models

// StatementResponse is the response for GET /scrape.
type StatementResponse struct {
	// HTML is the statement element's inner HTML, unmodified.
	HTML string `json:"html"`

	// Markdown is set only when format=markdown was requested.
	Markdown string `json:"markdown,omitempty"`
}

// CodeResponse is the response for GET /code.
type CodeResponse struct {
	// Code is the submission's source text exactly as rendered.
	Code string `json:"code"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports browser session usage since startup.
type SessionStats struct {
	ActiveSessions int   `json:"active_sessions"`
	TotalSessions  int64 `json:"total_sessions"`
	WarnThreshold  int   `json:"warn_threshold,omitempty"`
}
