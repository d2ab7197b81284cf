package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/cfscrape/config"
	"github.com/use-agent/cfscrape/models"
)

const (
	problemURL    = "https://codeforces.com/problemset/problem/4/A"
	submissionURL = "https://codeforces.com/contest/4/submission/123456"

	statementPage = `<html><body><div class="problem-statement"><div>problem text</div></div></body></html>`
	codePage      = `<html><body><pre id="program-source-text">#include &lt;cstdio&gt;
int main() { puts("YES"); }
</pre></body></html>`
	emptyPage = `<html><body><div class="notice">Not found</div></body></html>`
)

func testConfig() config.ExtractorConfig {
	return config.ExtractorConfig{
		AllowedOrigin:     "https://codeforces.com/",
		ClearanceCookie:   "cf_clearance",
		ClearanceAttempts: 60,
		ClearanceInterval: time.Millisecond,
		ElementTimeout:    20 * time.Millisecond,
		UserAgent:         config.DefaultUserAgent,
	}
}

func newTestExtractor(html string, clearanceOn int) (*Extractor, *fakeLauncher) {
	l := &fakeLauncher{newSession: func() *fakeSession { return newFakeSession(html, clearanceOn) }}
	return NewExtractor(testConfig(), l), l
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("expected *models.ScrapeError, got %T: %v", err, err)
	}
	if se.Code != want {
		t.Fatalf("error code = %s, want %s (%v)", se.Code, want, err)
	}
}

func TestExtract_InvalidURLNeverLaunches(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"foreign host", "https://example.com/x"},
		{"plain http", "http://codeforces.com/problemset/problem/1/A"},
		{"lookalike host", "https://codeforces.com.evil.io/problem/1/A"},
		{"no scheme", "codeforces.com/problemset/problem/1/A"},
		{"origin without slash", "https://codeforces.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, l := newTestExtractor(statementPage, 1)

			res, err := ex.Extract(context.Background(), tt.url, ProfileStatement)
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}
			assertCode(t, err, models.ErrCodeInvalidURL)
			if n := l.launchCount(); n != 0 {
				t.Errorf("launches = %d, want 0", n)
			}
		})
	}
}

func TestExtract_UnknownProfileNeverLaunches(t *testing.T) {
	ex, l := newTestExtractor(statementPage, 1)

	_, err := ex.Extract(context.Background(), problemURL, Profile("editorial"))
	assertCode(t, err, models.ErrCodeInvalidInput)
	if n := l.launchCount(); n != 0 {
		t.Errorf("launches = %d, want 0", n)
	}
}

func TestExtract_StatementReturnsInnerHTMLUnchanged(t *testing.T) {
	ex, l := newTestExtractor(statementPage, 1)

	res, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "<div>problem text</div>" {
		t.Errorf("content = %q, want %q", res.Content, "<div>problem text</div>")
	}
	if res.Profile != ProfileStatement || res.ClearanceAttempts != 1 {
		t.Errorf("result metadata = %+v", res)
	}

	s := l.only(t)
	if s.navigatedTo != problemURL {
		t.Errorf("navigated to %q", s.navigatedTo)
	}
	if s.userAgent != config.DefaultUserAgent {
		t.Errorf("user agent = %q", s.userAgent)
	}
	if s.cookieReads != 1 {
		t.Errorf("cookie reads = %d, want 1", s.cookieReads)
	}
	if s.closes != 1 {
		t.Errorf("closes = %d, want 1", s.closes)
	}
}

func TestExtract_SubmissionCodeReturnsInnerText(t *testing.T) {
	ex, l := newTestExtractor(codePage, 1)

	res, err := ex.Extract(context.Background(), submissionURL, ProfileSubmissionCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "#include <cstdio>\nint main() { puts(\"YES\"); }\n"
	if res.Content != want {
		t.Errorf("content = %q, want %q", res.Content, want)
	}
	if s := l.only(t); s.closes != 1 {
		t.Errorf("closes = %d, want 1", s.closes)
	}
}

func TestExtract_ClearanceOnAttemptK(t *testing.T) {
	for _, k := range []int{1, 2, 7, 59, 60} {
		ex, l := newTestExtractor(statementPage, k)

		res, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if res.ClearanceAttempts != k {
			t.Errorf("k=%d: ClearanceAttempts = %d", k, res.ClearanceAttempts)
		}
		s := l.only(t)
		if s.cookieReads != k {
			t.Errorf("k=%d: cookie reads = %d, want %d", k, s.cookieReads, k)
		}
		if s.closes != 1 {
			t.Errorf("k=%d: closes = %d, want 1", k, s.closes)
		}
	}
}

func TestExtract_ClearanceTimeout(t *testing.T) {
	ex, l := newTestExtractor(statementPage, 0)

	res, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
	if res != nil {
		t.Errorf("expected nil result, got %+v", res)
	}
	assertCode(t, err, models.ErrCodeClearanceTimeout)

	s := l.only(t)
	if s.cookieReads != 60 {
		t.Errorf("cookie reads = %d, want 60", s.cookieReads)
	}
	if s.waitCalls != 0 || s.propertyCalls != 0 {
		t.Errorf("extraction attempted after clearance timeout: waits=%d property=%d", s.waitCalls, s.propertyCalls)
	}
	if s.closes != 1 {
		t.Errorf("closes = %d, want 1", s.closes)
	}
}

func TestExtract_ClearanceTimeoutRespectsConfiguredBudget(t *testing.T) {
	cfg := testConfig()
	cfg.ClearanceAttempts = 3
	cfg.ClearanceInterval = 10 * time.Millisecond
	l := &fakeLauncher{newSession: func() *fakeSession { return newFakeSession(statementPage, 0) }}
	ex := NewExtractor(cfg, l)

	start := time.Now()
	_, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
	elapsed := time.Since(start)

	assertCode(t, err, models.ErrCodeClearanceTimeout)
	if s := l.only(t); s.cookieReads != 3 {
		t.Errorf("cookie reads = %d, want 3", s.cookieReads)
	}
	// Every failed read is followed by a full interval, the last one included.
	if budget := 3 * cfg.ClearanceInterval; elapsed < budget {
		t.Errorf("timed out after %v, before the %v budget", elapsed, budget)
	}
}

func TestExtract_ElementTimeout(t *testing.T) {
	ex, l := newTestExtractor(emptyPage, 1)

	start := time.Now()
	_, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
	assertCode(t, err, models.ErrCodeElementTimeout)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v, before the element timeout", elapsed)
	}

	s := l.only(t)
	if s.waitCalls != 1 {
		t.Errorf("wait calls = %d, want 1", s.waitCalls)
	}
	if s.propertyCalls != 0 {
		t.Errorf("property calls = %d, want 0", s.propertyCalls)
	}
	if s.closes != 1 {
		t.Errorf("closes = %d, want 1", s.closes)
	}
}

func TestExtract_CancelDuringElementWaitIsNotElementTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := &fakeLauncher{newSession: func() *fakeSession {
		s := newFakeSession(emptyPage, 1)
		s.onWait = cancel
		return s
	}}
	ex := NewExtractor(testConfig(), l)

	_, err := ex.Extract(ctx, problemURL, ProfileStatement)
	assertCode(t, err, models.ErrCodeExtractionFailed)

	s := l.only(t)
	if s.waitCalls != 1 {
		t.Errorf("wait calls = %d, want 1", s.waitCalls)
	}
	if s.propertyCalls != 0 {
		t.Errorf("property calls = %d, want 0", s.propertyCalls)
	}
	if s.closes != 1 {
		t.Errorf("closes = %d, want 1", s.closes)
	}
}

func TestExtract_AutomationFaultsBecomeExtractionFailed(t *testing.T) {
	boom := errors.New("target crashed")

	tests := []struct {
		name   string
		mutate func(*fakeSession)
	}{
		{"navigation", func(s *fakeSession) { s.navigateErr = boom }},
		{"cookie read", func(s *fakeSession) { s.cookieErr = boom }},
		{"property", func(s *fakeSession) { s.propertyErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLauncher{newSession: func() *fakeSession {
				s := newFakeSession(statementPage, 1)
				tt.mutate(s)
				return s
			}}
			ex := NewExtractor(testConfig(), l)

			_, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
			assertCode(t, err, models.ErrCodeExtractionFailed)
			if !errors.Is(err, boom) {
				t.Errorf("error chain lost the cause: %v", err)
			}
			if s := l.only(t); s.closes != 1 {
				t.Errorf("closes = %d, want 1", s.closes)
			}
		})
	}
}

func TestExtract_LaunchFailure(t *testing.T) {
	l := &fakeLauncher{launchErr: errors.New("chromium not found")}
	ex := NewExtractor(testConfig(), l)

	_, err := ex.Extract(context.Background(), problemURL, ProfileStatement)
	assertCode(t, err, models.ErrCodeExtractionFailed)
	if n := l.launchCount(); n != 1 {
		t.Errorf("launches = %d, want 1", n)
	}
	if stats := ex.Stats(); stats.ActiveSessions != 0 || stats.TotalSessions != 0 {
		t.Errorf("stats = %+v, want no sessions counted", stats)
	}
}

func TestExtract_CanceledContextStillReleases(t *testing.T) {
	ex, l := newTestExtractor(statementPage, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := ex.Extract(ctx, problemURL, ProfileStatement)
	assertCode(t, err, models.ErrCodeExtractionFailed)

	s := l.only(t)
	if s.cookieReads >= 60 {
		t.Errorf("cookie reads = %d, poll should have stopped early", s.cookieReads)
	}
	if s.closes != 1 {
		t.Errorf("closes = %d, want 1", s.closes)
	}
}

func TestExtract_ConcurrentRequestsGetOwnSessions(t *testing.T) {
	ex, l := newTestExtractor(statementPage, 2)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ex.Extract(context.Background(), problemURL, ProfileStatement); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	if got := l.launchCount(); got != n {
		t.Errorf("launches = %d, want %d", got, n)
	}
	for i, s := range l.sessions {
		if s.closes != 1 {
			t.Errorf("session %d closes = %d, want 1", i, s.closes)
		}
		if s.cookieReads != 2 {
			t.Errorf("session %d cookie reads = %d, want 2", i, s.cookieReads)
		}
	}

	stats := ex.Stats()
	if stats.ActiveSessions != 0 {
		t.Errorf("active sessions = %d, want 0", stats.ActiveSessions)
	}
	if stats.TotalSessions != n {
		t.Errorf("total sessions = %d, want %d", stats.TotalSessions, n)
	}
}

func TestNewExtractor_Defaults(t *testing.T) {
	ex := NewExtractor(config.ExtractorConfig{}, &fakeLauncher{})

	if ex.cfg.ClearanceAttempts != 60 {
		t.Errorf("ClearanceAttempts = %d, want 60", ex.cfg.ClearanceAttempts)
	}
	if ex.cfg.ClearanceInterval != time.Second {
		t.Errorf("ClearanceInterval = %v, want 1s", ex.cfg.ClearanceInterval)
	}
	if ex.cfg.ElementTimeout != 15*time.Second {
		t.Errorf("ElementTimeout = %v, want 15s", ex.cfg.ElementTimeout)
	}
	if ex.cfg.ClearanceCookie != "cf_clearance" {
		t.Errorf("ClearanceCookie = %q", ex.cfg.ClearanceCookie)
	}
	if ex.cfg.AllowedOrigin != "https://codeforces.com/" {
		t.Errorf("AllowedOrigin = %q", ex.cfg.AllowedOrigin)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("héllo", 2); got != "hé" {
		t.Errorf("preview = %q", got)
	}
	if got := preview("abc", 10); got != "abc" {
		t.Errorf("preview = %q", got)
	}
}
