// Package gateway wraps every outbound call to the quiz API. It attaches the
// anti-forgery token to unsafe requests, rotates it around login and logout,
// and clears the local authenticated hint when the server rejects the
// session's credentials.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/authflag"
	"github.com/stemsi/exstem-console/internal/session"
	"golang.org/x/net/publicsuffix"
)

const (
	// HeaderCSRF carries the anti-forgery token on unsafe requests.
	HeaderCSRF = "X-CSRFToken"
	// CSRFPath issues a fresh token.
	CSRFPath = "/api/auth/csrf/"

	LoginPath  = "/api/auth/login/"
	LogoutPath = "/api/auth/logout/"
)

// Request describes one call to the API. Body may be nil, an io.Reader, a
// []byte, or any value to be encoded as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into dst. An empty body leaves dst untouched.
func (r *Response) Decode(dst any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Options configures a Gateway. Zero values get working defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	CSRF       *session.CSRF
	AuthFlag   authflag.Store
	Logger     zerolog.Logger
	// OnRefresh observes the outcome of every background token refresh.
	OnRefresh func(error)
}

// Gateway is safe for concurrent use.
type Gateway struct {
	baseURL   string
	client    *http.Client
	csrf      *session.CSRF
	flag      authflag.Store
	log       zerolog.Logger
	onRefresh func(error)

	refreshes sync.WaitGroup
}

// NewHTTPClient returns a client that sends jar's cookies back, so the
// session cookie issued alongside the token rides on later requests. A nil
// jar gets a fresh in-memory one.
func NewHTTPClient(timeout time.Duration, jar http.CookieJar) (*http.Client, error) {
	if jar == nil {
		var err error
		if jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// New creates a Gateway.
func New(opts Options) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		var err error
		if client, err = NewHTTPClient(0, nil); err != nil {
			return nil, err
		}
	}
	csrf := opts.CSRF
	if csrf == nil {
		csrf = session.NewCSRF()
	}
	flag := opts.AuthFlag
	if flag == nil {
		flag = authflag.NewMemoryStore()
	}

	return &Gateway{
		baseURL:   base,
		client:    client,
		csrf:      csrf,
		flag:      flag,
		log:       opts.Logger,
		onRefresh: opts.OnRefresh,
	}, nil
}

// BaseURL returns the API root the gateway targets.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// AuthFlag exposes the Local Authentication Flag store.
func (g *Gateway) AuthFlag() authflag.Store {
	return g.flag
}

// Send issues req. Transport failures are returned verbatim; non-2xx
// responses are returned as *APIError after bookkeeping.
func (g *Gateway) Send(ctx context.Context, req *Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := g.newRequest(ctx, method, req)
	if err != nil {
		return nil, err
	}

	if !isSafeMethod(method) {
		token, err := g.csrf.Token(ctx, g.fetchToken)
		switch {
		case err == nil:
			httpReq.Header.Set(HeaderCSRF, token)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			// The server decides whether the header was mandatory.
			g.log.Warn().Err(err).Str("path", req.Path).Msg("CSRF token unavailable, sending without it")
		}
	}

	resp, err := g.do(httpReq)

	if isSessionBoundary(req.Path) {
		g.rotate()
	}

	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := newAPIError(resp.StatusCode, resp.Body)
		if apiErr.IsCredentialsFailure() {
			g.log.Info().Int("status", apiErr.StatusCode).Str("path", req.Path).Msg("Credentials rejected, clearing auth flag")
			g.flag.Clear(context.WithoutCancel(ctx))
		}
		return nil, apiErr
	}

	return resp, nil
}

// Do is Send followed by decoding the JSON body into dst (when non-nil).
func (g *Gateway) Do(ctx context.Context, req *Request, dst any) error {
	resp, err := g.Send(ctx, req)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	return resp.Decode(dst)
}

// Wait blocks until every background token refresh has finished.
func (g *Gateway) Wait() {
	g.refreshes.Wait()
}

func (g *Gateway) newRequest(ctx context.Context, method string, req *Request) (*http.Request, error) {
	target := g.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch b := req.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	case []byte:
		body = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

func (g *Gateway) do(httpReq *http.Request) (*Response, error) {
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

type csrfResponse struct {
	CSRFToken string `json:"csrfToken"`
}

func (g *Gateway) fetchToken(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+CSRFPath, nil)
	if err != nil {
		return "", fmt.Errorf("build csrf request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.do(httpReq)
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch csrf token: %w", newAPIError(resp.StatusCode, resp.Body))
	}

	var payload csrfResponse
	if err := resp.Decode(&payload); err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	return payload.CSRFToken, nil
}

// rotate discards the token after a session boundary and refetches it in
// the background so the next unsafe request does not pay the latency.
func (g *Gateway) rotate() {
	g.csrf.Invalidate()

	g.refreshes.Add(1)
	go func() {
		defer g.refreshes.Done()

		_, err := g.csrf.Token(context.Background(), g.fetchToken)
		if err != nil {
			g.log.Warn().Err(err).Msg("Background CSRF refresh failed")
		} else {
			g.log.Debug().Msg("CSRF token refreshed")
		}
		if g.onRefresh != nil {
			g.onRefresh(err)
		}
	}()
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isSessionBoundary(path string) bool {
	return strings.Contains(path, LoginPath) || strings.Contains(path, LogoutPath)
}
