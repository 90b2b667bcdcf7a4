// Package authflag persists the client-side "is authenticated" hint.
//
// The flag is only a hint for navigation; the server remains the authority on
// session validity. Stores never fail: an unavailable medium reads as absent
// and writes become no-ops, with the failure logged.
package authflag

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/config"
)

// Key is the storage key of the flag.
const Key = "is_authenticated"

// Value marks the flag as present.
const Value = "1"

// Store reads and writes the Local Authentication Flag.
type Store interface {
	IsSet(ctx context.Context) bool
	Set(ctx context.Context)
	Clear(ctx context.Context)
}

// Open builds the store selected by cfg.AuthFlagDriver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.AuthFlagDriver {
	case "file", "":
		return NewFileStore(cfg.AuthFlagPath, log), nil
	case "redis":
		return NewRedisStore(ctx, cfg, log)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown auth flag driver %q", cfg.AuthFlagDriver)
	}
}

// MemoryStore keeps the flag in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	set     bool
	cookies []*http.Cookie
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) IsSet(context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set
}

func (m *MemoryStore) Set(context.Context) {
	m.mu.Lock()
	m.set = true
	m.mu.Unlock()
}

func (m *MemoryStore) Clear(context.Context) {
	m.mu.Lock()
	m.set = false
	m.mu.Unlock()
}

func (m *MemoryStore) LoadCookies(context.Context) []*http.Cookie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneCookies(m.cookies)
}

func (m *MemoryStore) SaveCookies(_ context.Context, cookies []*http.Cookie) {
	m.mu.Lock()
	m.cookies = cloneCookies(cookies)
	m.mu.Unlock()
}
