package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-console/internal/config"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims extends JWT standard claims with the instructor identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Session limits of the development server.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultMaxSessions = 10000
)

type devSession struct {
	csrf     string
	lastSeen time.Time
}

// AuthService handles passwords, access tokens and the anonymous sessions
// that carry CSRF tokens.
type AuthService struct {
	cfg   *config.Config
	users *repository.UserRepository

	mu          sync.Mutex
	sessions    map[string]*devSession
	sessionTTL  time.Duration
	maxSessions int
	now         func() time.Time
}

// NewAuthService creates a new AuthService. Sessions idle longer than
// DefaultSessionTTL expire and at most DefaultMaxSessions are held.
func NewAuthService(cfg *config.Config, users *repository.UserRepository) *AuthService {
	return &AuthService{
		cfg:         cfg,
		users:       users,
		sessions:    map[string]*devSession{},
		sessionTTL:  DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// Authenticate checks username and password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, hash, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GenerateToken signs an access token for user.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates an access token, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// EnsureSession returns the session for sessionID, creating a new one when
// the ID is empty, unknown or expired.
func (s *AuthService) EnsureSession(sessionID string) (id, csrfToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.liveSession(sessionID, now); ok {
		sess.lastSeen = now
		return sessionID, sess.csrf
	}

	s.makeRoom(now)
	id = uuid.New().String()
	csrfToken = newCSRFToken()
	s.sessions[config.CacheKey.DevSessionKey(id)] = &devSession{csrf: csrfToken, lastSeen: now}
	return id, csrfToken
}

// RotateCSRF issues a new token for an existing session. Unknown sessions
// are left alone.
func (s *AuthService) RotateCSRF(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.liveSession(sessionID, now); ok {
		sess.csrf = newCSRFToken()
		sess.lastSeen = now
	}
}

// CheckCSRF reports whether token matches the session's current token.
func (s *AuthService) CheckCSRF(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}

	s.mu.Lock()
	now := s.now()
	sess, ok := s.liveSession(sessionID, now)
	var expected string
	if ok {
		sess.lastSeen = now
		expected = sess.csrf
	}
	s.mu.Unlock()

	return ok && subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

// liveSession looks up a session, dropping it when idle past the TTL.
// Callers hold s.mu.
func (s *AuthService) liveSession(sessionID string, now time.Time) (*devSession, bool) {
	if sessionID == "" {
		return nil, false
	}
	key := config.CacheKey.DevSessionKey(sessionID)
	sess, ok := s.sessions[key]
	if !ok {
		return nil, false
	}
	if now.Sub(sess.lastSeen) > s.sessionTTL {
		delete(s.sessions, key)
		return nil, false
	}
	return sess, true
}

// makeRoom sweeps idle sessions and, when still full, evicts the least
// recently used one. Callers hold s.mu.
func (s *AuthService) makeRoom(now time.Time) {
	if len(s.sessions) < s.maxSessions {
		return
	}

	var (
		oldestKey string
		oldest    time.Time
	)
	for key, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.sessionTTL {
			delete(s.sessions, key)
			continue
		}
		if oldestKey == "" || sess.lastSeen.Before(oldest) {
			oldestKey, oldest = key, sess.lastSeen
		}
	}
	if len(s.sessions) >= s.maxSessions && oldestKey != "" {
		delete(s.sessions, oldestKey)
	}
}

func newCSRFToken() string {
	return uuid.New().String() + uuid.New().String()[:8]
}
