package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/cfscrape/api"
	"github.com/use-agent/cfscrape/cleaner"
	"github.com/use-agent/cfscrape/config"
	"github.com/use-agent/cfscrape/engine"
	"github.com/use-agent/cfscrape/oauth"
	"github.com/use-agent/cfscrape/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("cfscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"headless", cfg.Browser.Headless,
		"stealth", cfg.Browser.Stealth,
	)

	// ── 3. Browser launcher and extractor ───────────────────────────
	// No browser is started here: every request launches its own.
	launcher := engine.NewRodLauncher(cfg.Browser)
	ex := scraper.NewExtractor(cfg.Extractor, launcher)

	// ── 4. Statement cleaner ────────────────────────────────────────
	cl := cleaner.NewCleaner(cfg.Extractor.AllowedOrigin)

	// ── 5. GitHub OAuth ─────────────────────────────────────────────
	if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
		slog.Warn("GitHub OAuth credentials not set, /auth/github/callback will fail")
	}
	tokens := oauth.NewGitHubExchanger(cfg.OAuth, nil)

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(ex, cl, tokens, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// An extraction can take over a minute (clearance poll + element wait).
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err,
			"active_sessions", ex.Stats().ActiveSessions)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("cfscrape stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
