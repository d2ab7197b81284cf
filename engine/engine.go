package engine

import "context"

// Launcher starts isolated browser sessions. Every call to Launch must
// produce a fresh browser that shares no state (cookies, cache, storage)
// with any other session.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is one exclusively-owned browser instance with a single page.
//
// Blocking methods honour ctx; a deadline on ctx is the only timeout a
// Session applies. Close must be called exactly once by the owner.
type Session interface {
	// SetUserAgent overrides the client identity for subsequent requests.
	SetUserAgent(userAgent string) error

	// Navigate loads url and returns once the document has been parsed
	// (DOMContentLoaded), not necessarily fully loaded.
	Navigate(ctx context.Context, url string) error

	// Cookies returns the cookies currently visible to the page.
	Cookies(ctx context.Context) ([]Cookie, error)

	// WaitElement blocks until selector matches an element or ctx is done.
	WaitElement(ctx context.Context, selector string) error

	// Property reads a DOM property (e.g. "innerHTML", "innerText") of the
	// first element matching selector.
	Property(ctx context.Context, selector, property string) (string, error)

	// Close terminates the browser process and removes its profile.
	Close() error
}

// Cookie is the subset of a browser cookie the extractor cares about.
type Cookie struct {
	Name   string
	Value  string
	Domain string
}

// HasCookie reports whether a cookie with the given name is present.
func HasCookie(cookies []Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}
