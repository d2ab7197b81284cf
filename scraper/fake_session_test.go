package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/cfscrape/engine"
)

// fakeLauncher records every Launch call and hands out fakeSessions built
// by newSession.
type fakeLauncher struct {
	mu         sync.Mutex
	launchErr  error
	newSession func() *fakeSession
	sessions   []*fakeSession
	launches   int
}

func (l *fakeLauncher) Launch(ctx context.Context) (engine.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	s := l.newSession()
	l.sessions = append(l.sessions, s)
	return s, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *fakeLauncher) only(t interface{ Fatalf(string, ...any) }) *fakeSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.sessions) != 1 {
		t.Fatalf("expected exactly 1 session, got %d", len(l.sessions))
	}
	return l.sessions[0]
}

// fakeSession serves a static HTML document through goquery. The clearance
// cookie shows up on cookie read number clearanceOn (0 means never).
type fakeSession struct {
	doc         *goquery.Document
	clearanceOn int

	// onWait runs when WaitElement is entered.
	onWait func()

	navigateErr error
	cookieErr   error
	propertyErr error

	userAgent     string
	navigatedTo   string
	cookieReads   int
	waitCalls     int
	propertyCalls int
	closes        int
}

func newFakeSession(html string, clearanceOn int) *fakeSession {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	return &fakeSession{doc: doc, clearanceOn: clearanceOn}
}

func (s *fakeSession) SetUserAgent(userAgent string) error {
	s.userAgent = userAgent
	return nil
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.navigatedTo = url
	return s.navigateErr
}

func (s *fakeSession) Cookies(ctx context.Context) ([]engine.Cookie, error) {
	s.cookieReads++
	if s.cookieErr != nil {
		return nil, s.cookieErr
	}
	cookies := []engine.Cookie{{Name: "__cf_bm", Value: "challenge", Domain: ".codeforces.com"}}
	if s.clearanceOn > 0 && s.cookieReads >= s.clearanceOn {
		cookies = append(cookies, engine.Cookie{Name: "cf_clearance", Value: "ok", Domain: ".codeforces.com"})
	}
	return cookies, nil
}

func (s *fakeSession) WaitElement(ctx context.Context, selector string) error {
	s.waitCalls++
	if s.onWait != nil {
		s.onWait()
	}
	if s.doc.Find(selector).Length() > 0 {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeSession) Property(ctx context.Context, selector, property string) (string, error) {
	s.propertyCalls++
	if s.propertyErr != nil {
		return "", s.propertyErr
	}
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	switch property {
	case PropertyInnerHTML:
		return sel.Html()
	case PropertyInnerText:
		return sel.Text(), nil
	default:
		return "", fmt.Errorf("unsupported property %q", property)
	}
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}
