package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/authflag"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// fakeAPI hands out tok-1, tok-2, ... from the csrf endpoint and records the
// header seen on every other request.
type fakeAPI struct {
	csrfCalls  atomic.Int32
	csrfDelay  time.Duration
	csrfStatus int

	mu      sync.Mutex
	headers map[string][]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{csrfStatus: http.StatusOK, headers: map[string][]string{}}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == CSRFPath {
		n := f.csrfCalls.Add(1)
		time.Sleep(f.csrfDelay)
		if f.csrfStatus != http.StatusOK {
			w.WriteHeader(f.csrfStatus)
			return
		}
		fmt.Fprintf(w, `{"csrfToken":"tok-%d"}`, n)
		return
	}

	f.mu.Lock()
	f.headers[r.URL.Path] = append(f.headers[r.URL.Path], r.Header.Get(HeaderCSRF))
	f.mu.Unlock()

	switch r.URL.Path {
	case "/api/denied/credentials/":
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail":"Invalid credentials"}`)
	case "/api/denied/resource/":
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail":"Forbidden resource"}`)
	case LoginPath:
		if r.URL.Query().Get("fail") == "1" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"detail":"Invalid credentials."}`)
			return
		}
		fmt.Fprint(w, `{"id":1,"username":"ana"}`)
	default:
		fmt.Fprint(w, `{"ok":true}`)
	}
}

func (f *fakeAPI) seen(path string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.headers[path]...)
}

func newTestGateway(t *testing.T, api http.Handler, flag authflag.Store) (*Gateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	g, err := New(Options{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		AuthFlag:   flag,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return g, server
}

func TestSafeMethodsSkipToken(t *testing.T) {
	api := newFakeAPI()
	g, _ := newTestGateway(t, api, nil)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		if _, err := g.Send(context.Background(), &Request{Method: method, Path: "/api/quizzes/"}); err != nil {
			t.Fatalf("%s returned error: %v", method, err)
		}
	}

	if got := api.csrfCalls.Load(); got != 0 {
		t.Fatalf("expected no token fetch for safe methods, got %d", got)
	}
	for _, h := range api.seen("/api/quizzes/") {
		if h != "" {
			t.Fatalf("safe request carried token %q", h)
		}
	}
}

func TestUnsafeMethodAttachesCachedToken(t *testing.T) {
	api := newFakeAPI()
	g, _ := newTestGateway(t, api, nil)

	for i := 0; i < 3; i++ {
		if _, err := g.Send(context.Background(), &Request{Method: http.MethodPost, Path: "/api/quizzes/", Body: map[string]string{"title": "Q"}}); err != nil {
			t.Fatalf("POST returned error: %v", err)
		}
	}

	if got := api.csrfCalls.Load(); got != 1 {
		t.Fatalf("expected one token fetch, got %d", got)
	}
	for _, h := range api.seen("/api/quizzes/") {
		if h != "tok-1" {
			t.Fatalf("expected tok-1, got %q", h)
		}
	}
}

func TestConcurrentUnsafeRequestsShareOneFetch(t *testing.T) {
	api := newFakeAPI()
	api.csrfDelay = 200 * time.Millisecond
	g, _ := newTestGateway(t, api, nil)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Send(context.Background(), &Request{Method: http.MethodDelete, Path: "/api/quizzes/7/"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("DELETE returned error: %v", err)
		}
	}
	if got := api.csrfCalls.Load(); got != 1 {
		t.Fatalf("expected exactly one token fetch, got %d", got)
	}
	seen := api.seen("/api/quizzes/7/")
	if len(seen) != n {
		t.Fatalf("expected %d requests, got %d", n, len(seen))
	}
	for _, h := range seen {
		if h != "tok-1" {
			t.Fatalf("expected every request to carry tok-1, got %q", h)
		}
	}
}

func TestTokenFetchFailureProceedsHeaderless(t *testing.T) {
	api := newFakeAPI()
	api.csrfStatus = http.StatusServiceUnavailable
	api.csrfDelay = 200 * time.Millisecond
	g, _ := newTestGateway(t, api, nil)

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Send(context.Background(), &Request{Method: http.MethodPut, Path: "/api/quizzes/3/"}); err != nil {
				t.Errorf("PUT returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := api.csrfCalls.Load(); got != 1 {
		t.Fatalf("expected one failed fetch shared by all callers, got %d", got)
	}
	for _, h := range api.seen("/api/quizzes/3/") {
		if h != "" {
			t.Fatalf("expected headerless request, got %q", h)
		}
	}
}

func TestLoginInvalidatesAndRefreshesToken(t *testing.T) {
	api := newFakeAPI()
	g, _ := newTestGateway(t, api, nil)
	ctx := context.Background()

	if _, err := g.Send(ctx, &Request{Method: http.MethodPost, Path: LoginPath, Body: map[string]string{"username": "ana"}}); err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	g.Wait()

	if got := api.csrfCalls.Load(); got != 2 {
		t.Fatalf("expected initial fetch plus background refresh, got %d", got)
	}
	if tok, ok := g.csrf.Cached(); !ok || tok != "tok-2" {
		t.Fatalf("expected refreshed tok-2 cached, got %q %v", tok, ok)
	}

	if _, err := g.Send(ctx, &Request{Method: http.MethodPost, Path: "/api/quizzes/"}); err != nil {
		t.Fatalf("POST returned error: %v", err)
	}
	if seen := api.seen("/api/quizzes/"); len(seen) != 1 || seen[0] != "tok-2" {
		t.Fatalf("expected post-login request to carry tok-2, got %v", seen)
	}
	if seen := api.seen(LoginPath); len(seen) != 1 || seen[0] != "tok-1" {
		t.Fatalf("expected login to carry tok-1, got %v", seen)
	}
}

func TestFailedLoginStillRotatesToken(t *testing.T) {
	api := newFakeAPI()
	var refreshed atomic.Int32
	server := httptest.NewServer(api)
	defer server.Close()

	g, err := New(Options{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
		OnRefresh: func(err error) {
			if err == nil {
				refreshed.Add(1)
			}
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = g.Send(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Query:  map[string][]string{"fail": {"1"}},
	})
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	g.Wait()

	if refreshed.Load() != 1 {
		t.Fatalf("expected one successful background refresh")
	}
	if got := api.csrfCalls.Load(); got != 2 {
		t.Fatalf("expected token refetched after failed login, got %d fetches", got)
	}
}

func TestLogoutTransportErrorStillRotates(t *testing.T) {
	var csrfCalls atomic.Int32
	dialErr := errors.New("dial error")
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path == CSRFPath {
			csrfCalls.Add(1)
			return nil, dialErr
		}
		return nil, dialErr
	})}

	var refreshErrs []error
	var mu sync.Mutex
	g, err := New(Options{
		BaseURL:    "http://api.example.test",
		HTTPClient: client,
		Logger:     zerolog.Nop(),
		OnRefresh: func(err error) {
			mu.Lock()
			refreshErrs = append(refreshErrs, err)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = g.Send(context.Background(), &Request{Method: http.MethodPost, Path: LogoutPath})
	if !errors.Is(err, dialErr) {
		t.Fatalf("expected transport error to propagate, got %v", err)
	}
	g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(refreshErrs) != 1 || !errors.Is(refreshErrs[0], dialErr) {
		t.Fatalf("expected refresh failure to be observable, got %v", refreshErrs)
	}
	if got := csrfCalls.Load(); got != 2 {
		t.Fatalf("expected request-time fetch plus background refresh, got %d", got)
	}
}

func TestCredentialsFailureClearsAuthFlag(t *testing.T) {
	api := newFakeAPI()
	flag := authflag.NewMemoryStore()
	g, _ := newTestGateway(t, api, flag)
	ctx := context.Background()

	flag.Set(ctx)
	_, err := g.Send(ctx, &Request{Method: http.MethodGet, Path: "/api/denied/resource/"})
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.StatusCode != http.StatusForbidden || apiErr.Detail != "Forbidden resource" {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
	if !flag.IsSet(ctx) {
		t.Fatalf("resource denial must not clear the auth flag")
	}

	_, err = g.Send(ctx, &Request{Method: http.MethodGet, Path: "/api/denied/credentials/"})
	if !IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403 APIError, got %v", err)
	}
	if flag.IsSet(ctx) {
		t.Fatalf("credentials failure must clear the auth flag")
	}
}

func TestAPIErrorFallsBackToStatusText(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       http.NoBody,
			Header:     make(http.Header),
		}, nil
	})}
	g, err := New(Options{BaseURL: "http://api.example.test", HTTPClient: client, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = g.Send(context.Background(), &Request{Path: "/api/quizzes/"})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Detail != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("expected status text detail, got %q", apiErr.Detail)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}

func TestCancelledWaiterLeavesSharedFetchIntact(t *testing.T) {
	api := newFakeAPI()
	api.csrfDelay = 300 * time.Millisecond
	g, _ := newTestGateway(t, api, nil)

	// The cancelled caller starts the fetch the others end up sharing.
	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := g.Send(ctx, &Request{Method: http.MethodDelete, Path: "/api/quizzes/9/"})
		cancelled <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for api.csrfCalls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("token fetch never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	const waiters = 5
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Send(context.Background(), &Request{Method: http.MethodDelete, Path: "/api/quizzes/1/"}); err != nil {
				errs <- err
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	cancel()

	if err := <-cancelled; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("waiter returned error: %v", err)
	}

	if got := api.csrfCalls.Load(); got != 1 {
		t.Fatalf("expected one token fetch, got %d", got)
	}
	if got := api.seen("/api/quizzes/9/"); len(got) != 0 {
		t.Fatalf("cancelled request was dispatched: %v", got)
	}
	seen := api.seen("/api/quizzes/1/")
	if len(seen) != waiters {
		t.Fatalf("expected %d dispatched requests, got %d", waiters, len(seen))
	}
	for _, h := range seen {
		if h != "tok-1" {
			t.Fatalf("expected tok-1, got %q", h)
		}
	}
}
