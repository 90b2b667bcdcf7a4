// Package session holds the client-side session context shared by every
// request the console issues.
package session

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrEmptyToken is returned when the token endpoint answers without a token.
var ErrEmptyToken = errors.New("csrf endpoint returned an empty token")

// FetchFunc retrieves a fresh anti-forgery token from the server.
type FetchFunc func(ctx context.Context) (string, error)

// CSRF caches the anti-forgery token for one logical session.
// At most one fetch per generation is in flight; callers arriving while it
// runs wait for the same result.
type CSRF struct {
	mu    sync.Mutex
	token string
	gen   uint64
	group singleflight.Group

	// afterMiss runs between a cache miss and joining the fetch; tests only.
	afterMiss func()
}

// NewCSRF returns an empty session context.
func NewCSRF() *CSRF {
	return &CSRF{}
}

// Cached returns the current token and whether one is present.
func (s *CSRF) Cached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Token returns the cached token, fetching it with fetch when absent.
// The fetch is detached from ctx cancellation because other callers may be
// waiting on it; ctx only bounds how long this caller waits.
func (s *CSRF) Token(ctx context.Context, fetch FetchFunc) (string, error) {
	s.mu.Lock()
	if s.token != "" {
		tok := s.token
		s.mu.Unlock()
		return tok, nil
	}
	gen := s.gen
	s.mu.Unlock()

	if s.afterMiss != nil {
		s.afterMiss()
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		// A fetch of this generation may have completed and left the group
		// between the cache check above and DoChan.
		s.mu.Lock()
		if s.gen == gen && s.token != "" {
			tok := s.token
			s.mu.Unlock()
			return tok, nil
		}
		s.mu.Unlock()

		tok, err := fetch(shared)
		if err != nil {
			return "", err
		}
		if tok == "" {
			return "", ErrEmptyToken
		}

		s.mu.Lock()
		if s.gen == gen {
			s.token = tok
		}
		s.mu.Unlock()
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token. A fetch already in flight will not
// repopulate the cache once it completes.
func (s *CSRF) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.gen++
	s.mu.Unlock()
}
