package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cfscrape/api/handler"
	"github.com/use-agent/cfscrape/api/middleware"
	"github.com/use-agent/cfscrape/cleaner"
	"github.com/use-agent/cfscrape/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Scrape:  Auth (if enabled)
//
// Health and the OAuth callback stay outside auth: probes and GitHub's
// redirect carry no API key.
func NewRouter(ex handler.ContentExtractor, cl *cleaner.Cleaner, tokens handler.TokenExchanger, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/health", handler.Health(ex, startTime))
	r.GET("/auth/github/callback", handler.GitHubCallback(tokens, cfg.OAuth.ExtensionIDs))

	protected := r.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}

	// Problem statement (rendered HTML)
	protected.GET("/scrape", handler.Statement(ex, cl))

	// Submission source (plain text)
	protected.GET("/code", handler.SubmissionCode(ex))

	return r
}
