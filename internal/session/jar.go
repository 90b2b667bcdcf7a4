package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// CookieStore persists the cookies the API sets between console runs.
type CookieStore interface {
	LoadCookies(ctx context.Context) []*http.Cookie
	SaveCookies(ctx context.Context, cookies []*http.Cookie)
}

// Jar is a cookie jar whose cookies for the API origin outlive the process.
// Cookies for other hosts stay in memory only.
type Jar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
	root  *url.URL
	store CookieStore
}

// NewJar creates a jar for baseURL and restores the cookies saved in store.
// A nil store keeps everything in memory.
func NewJar(ctx context.Context, baseURL string, store CookieStore) (*Jar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q needs a scheme and host", baseURL)
	}

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	j := &Jar{
		inner: inner,
		root:  &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
		store: store,
	}
	if store != nil {
		if saved := store.LoadCookies(ctx); len(saved) > 0 {
			inner.SetCookies(j.root, saved)
		}
	}
	return j, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if j.store == nil || u.Host != j.root.Host {
		return
	}
	// Expired cookies have already left the inner jar, so a logout shrinks
	// the saved set as well.
	j.store.SaveCookies(context.Background(), j.inner.Cookies(j.root))
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}
