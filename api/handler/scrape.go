package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cfscrape/cleaner"
	"github.com/use-agent/cfscrape/models"
	"github.com/use-agent/cfscrape/scraper"
)

// ContentExtractor is the part of *scraper.Extractor the handlers use.
type ContentExtractor interface {
	Extract(ctx context.Context, targetURL string, profile scraper.Profile) (*scraper.ExtractionResult, error)
	Stats() models.SessionStats
}

// Statement returns a handler for GET /scrape.
//
// Flow:
//  1. Bind query (url, format), apply defaults.
//  2. Extractor.Extract with the statement profile.
//  3. Optional Markdown rendering; on failure the HTML is still returned.
func Statement(ex ContentExtractor, cl *cleaner.Cleaner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: err.Error(),
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}
		req.Defaults()

		result, err := ex.Extract(c.Request.Context(), req.URL, scraper.ProfileStatement)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := models.StatementResponse{HTML: result.Content}
		if req.Format == "markdown" && cl != nil {
			md, mdErr := cl.StatementMarkdown(result.Content)
			if mdErr != nil {
				slog.Warn("markdown rendering failed, returning HTML only",
					"url", req.URL, "error", mdErr)
			} else {
				resp.Markdown = md
			}
		}

		logResult(req.URL, result)
		c.JSON(http.StatusOK, resp)
	}
}

// SubmissionCode returns a handler for GET /code.
func SubmissionCode(ex ContentExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CodeRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: err.Error(),
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}

		result, err := ex.Extract(c.Request.Context(), req.URL, scraper.ProfileSubmissionCode)
		if err != nil {
			respondError(c, err)
			return
		}

		logResult(req.URL, result)
		c.JSON(http.StatusOK, models.CodeResponse{Code: result.Content})
	}
}

func logResult(url string, result *scraper.ExtractionResult) {
	slog.Info("extraction served",
		"url", url,
		"profile", string(result.Profile),
		"clearance_attempts", result.ClearanceAttempts,
		"clearance_ms", result.ClearanceDuration.Round(time.Millisecond).Milliseconds(),
		"total_ms", result.TotalDuration.Round(time.Millisecond).Milliseconds(),
	)
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, "internal error", err)
	}

	status := mapErrorToStatus(scrapeErr)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "code", models.CodeOf(err), "error", err)
	} else {
		slog.Info("request rejected", "path", c.Request.URL.Path, "code", models.CodeOf(err), "error", err)
	}

	c.JSON(status, scrapeErr.ToResponse())
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidURL, models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeClearanceTimeout:
		return http.StatusForbidden // 403
	case models.ErrCodeElementTimeout, models.ErrCodeOAuthExchange:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
