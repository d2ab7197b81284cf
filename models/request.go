package models

// ScrapeRequest is the query payload for GET /scrape.
//
// URL is deliberately not marked as required: validation against the
// allow-listed origin happens in the extractor so that a missing URL and a
// foreign URL share the same INVALID_URL response.
type ScrapeRequest struct {
	// URL is the Codeforces page to read.
	URL string `form:"url"`

	// Format controls the statement output. Allowed: "html" (default),
	// "markdown".
	Format string `form:"format" binding:"omitempty,oneof=html markdown"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Format == "" {
		r.Format = "html"
	}
}

// CodeRequest is the query payload for GET /code. Submission code is always
// plain text, so there is no format; unknown parameters are ignored.
type CodeRequest struct {
	URL string `form:"url"`
}

// OAuthCallbackRequest is the query payload for GET /auth/github/callback.
type OAuthCallbackRequest struct {
	Code string `form:"code" binding:"required"`

	// State carries the ID of the extension that started the flow.
	State string `form:"state"`
}
