package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/cfscrape/config"
	"github.com/ysmood/gson"
)

// RodLauncher launches one dedicated Chromium process per session.
// Each process gets its own temporary user-data directory, so sessions
// never share cookies.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a RodLauncher for the given browser settings.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts Chromium, connects to it over CDP and opens a blank page.
// On any failure the partially started process is torn down before
// returning.
func (r *RodLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := r.newLauncher(ctx)

	controlURL, err := l.Launch()
	if err != nil {
		discard(l)
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "pid", l.PID())

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	s := &rodSession{launcher: l, browser: browser}

	if r.cfg.Stealth {
		s.page, err = stealth.Page(browser)
	} else {
		s.page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if len(r.cfg.ExtraHeaders) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(r.cfg.ExtraHeaders),
		}).Call(s.page); err != nil {
			slog.Warn("failed to set extra headers, continuing", "error", err)
		}
	}

	return s, nil
}

// newLauncher builds the launcher for one session. ctx bounds the launch
// itself; the running browser is torn down by rodSession.Close.
func (r *RodLauncher) newLauncher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox).
		Leakless(true)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}
	if r.cfg.NoSandbox {
		l.Set(flags.Flag("disable-setuid-sandbox"))
	}

	// ── Anti-automation flags ────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	return l
}

// rodSession is a Session backed by a dedicated rod browser.
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *rodSession) SetUserAgent(userAgent string) error {
	return s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "Win32",
	})
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)

	// The lifecycle listener has to exist before navigation starts,
	// otherwise an early DOMContentLoaded is missed.
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()
	return ctx.Err()
}

func (s *rodSession) Cookies(ctx context.Context) ([]Cookie, error) {
	raw, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, err
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
	}
	return cookies, nil
}

func (s *rodSession) WaitElement(ctx context.Context, selector string) error {
	// Element retries until the selector matches or ctx expires.
	_, err := s.page.Context(ctx).Element(selector)
	return err
}

func (s *rodSession) Property(ctx context.Context, selector, property string) (string, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return "", err
	}
	v, err := el.Property(property)
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

// Close kills the browser process and removes its user-data directory.
// Teardown uses the session's own background context so it still runs
// after the request context has expired.
func (s *rodSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	return errors.Join(errs...)
}

// discard tears down a launcher whose Launch failed. Cleanup is not usable
// here: it waits for the browser process to exit, and there may never have
// been one.
func discard(l *launcher.Launcher) {
	l.Kill()
	if dir := l.Get(flags.UserDataDir); dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove browser profile", "dir", dir, "error", err)
		}
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
