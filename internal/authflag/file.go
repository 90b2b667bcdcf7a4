package authflag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileStore keeps the flag and the API session cookies in a small JSON
// key-value file, the console's equivalent of browser storage. Other keys in
// the file are preserved.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// NewFileStore creates a FileStore backed by path. The file is created lazily.
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (f *FileStore) IsSet(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		f.log.Warn().Err(err).Str("path", f.path).Msg("Auth flag unreadable, treating as absent")
		return false
	}
	return values[Key] == Value
}

func (f *FileStore) Set(context.Context) {
	f.update(func(values map[string]string) { values[Key] = Value })
}

func (f *FileStore) Clear(context.Context) {
	f.update(func(values map[string]string) { delete(values, Key) })
}

// LoadCookies returns the API session cookies saved next to the flag.
func (f *FileStore) LoadCookies(context.Context) []*http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		f.log.Warn().Err(err).Str("path", f.path).Msg("Session cookies unreadable, starting fresh")
		return nil
	}
	return decodeCookies(values[CookiesKey])
}

func (f *FileStore) SaveCookies(_ context.Context, cookies []*http.Cookie) {
	encoded := encodeCookies(cookies)
	f.update(func(values map[string]string) {
		if encoded == "" {
			delete(values, CookiesKey)
			return
		}
		values[CookiesKey] = encoded
	})
}

func (f *FileStore) update(mutate func(map[string]string)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every write.
		f.log.Warn().Err(err).Str("path", f.path).Msg("Auth flag file unreadable, rewriting")
		values = map[string]string{}
	}
	mutate(values)

	if err := f.save(values); err != nil {
		f.log.Warn().Err(err).Str("path", f.path).Msg("Auth flag write skipped")
	}
}

func (f *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	values := map[string]string{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return values, nil
}

func (f *FileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
