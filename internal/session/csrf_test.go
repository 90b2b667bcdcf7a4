package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTokenSharesSingleFetch(t *testing.T) {
	s := NewCSRF()
	release := make(chan struct{})
	var calls atomic.Int32

	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "tok-1", nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Token(context.Background(), fetch)
		}(i)
	}

	// Give every goroutine a chance to join the pending fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error %v", i, errs[i])
		}
		if results[i] != "tok-1" {
			t.Fatalf("caller %d: expected tok-1, got %q", i, results[i])
		}
	}
}

func TestTokenReusesCachedValue(t *testing.T) {
	s := NewCSRF()
	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		return "cached", nil
	}

	for i := 0; i < 3; i++ {
		if _, err := s.Token(context.Background(), fetch); err != nil {
			t.Fatalf("Token returned error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
	if tok, ok := s.Cached(); !ok || tok != "cached" {
		t.Fatalf("expected cached token, got %q %v", tok, ok)
	}
}

func TestTokenFailureIsNotCached(t *testing.T) {
	s := NewCSRF()
	fail := errors.New("boom")
	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", fail
		}
		return "second", nil
	}

	if _, err := s.Token(context.Background(), fetch); !errors.Is(err, fail) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, ok := s.Cached(); ok {
		t.Fatalf("expected no cached token after failure")
	}
	tok, err := s.Token(context.Background(), fetch)
	if err != nil || tok != "second" {
		t.Fatalf("expected retry to succeed, got %q %v", tok, err)
	}
}

func TestTokenEmptyResponse(t *testing.T) {
	s := NewCSRF()
	_, err := s.Token(context.Background(), func(context.Context) (string, error) { return "", nil })
	if !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	s := NewCSRF()
	var calls int
	fetch := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "before", nil
		}
		return "after", nil
	}

	if tok, _ := s.Token(context.Background(), fetch); tok != "before" {
		t.Fatalf("expected before, got %q", tok)
	}
	s.Invalidate()
	if _, ok := s.Cached(); ok {
		t.Fatalf("expected cache cleared")
	}
	if tok, _ := s.Token(context.Background(), fetch); tok != "after" {
		t.Fatalf("expected after, got %q", tok)
	}
	if calls != 2 {
		t.Fatalf("expected two fetches, got %d", calls)
	}
}

func TestInvalidateDuringFetchDiscardsStaleToken(t *testing.T) {
	s := NewCSRF()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan string)
	go func() {
		tok, _ := s.Token(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- tok
	}()

	<-started
	s.Invalidate()
	close(release)

	if tok := <-done; tok != "stale" {
		t.Fatalf("waiting caller should still get its fetch result, got %q", tok)
	}
	if _, ok := s.Cached(); ok {
		t.Fatalf("stale token must not be cached after invalidation")
	}
}

func TestTokenCallerCancellation(t *testing.T) {
	s := NewCSRF()
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Token(ctx, func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTokenRechecksCacheBeforeFetching(t *testing.T) {
	s := NewCSRF()
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "tok-1", nil
	}

	// Another caller completes the whole fetch while the first one sits
	// between its cache miss and joining the group.
	nested := false
	s.afterMiss = func() {
		if nested {
			return
		}
		nested = true
		if _, err := s.Token(context.Background(), fetch); err != nil {
			t.Errorf("nested Token: %v", err)
		}
	}

	tok, err := s.Token(context.Background(), fetch)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q", tok)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected 1 fetch for one generation, got %d", n)
	}
}
