package config

import (
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration shared by the console and the
// development server.
type Config struct {
	// Client side.
	APIBaseURL           string
	PublicBaseURL        string
	Profile              string
	AuthFlagDriver       string
	AuthFlagPath         string
	RedisURL             string
	AttemptTokenEncoding string
	RequestTimeout       time.Duration

	LogLevel  string
	LogFormat string

	// Development server.
	ServerPort  string
	GinMode     string
	JWTSecret   string
	JWTExpiry   time.Duration
	BcryptCost  int
	DevUsername string
	DevPassword string
	// AllowedOrigins controls CORS on the development server.
	// Empty slice falls back to CORSOrigins' defaults.
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5173"), "/"),
		Profile:              getEnv("PROFILE", "default"),
		AuthFlagDriver:       getEnv("AUTH_FLAG_DRIVER", "file"),
		AuthFlagPath:         getEnv("AUTH_FLAG_PATH", defaultStatePath()),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AttemptTokenEncoding: getEnv("ATTEMPT_TOKEN_ENCODING", "base64"),
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "auto"),
		ServerPort:           getEnv("SERVER_PORT", "8000"),
		GinMode:              getEnv("GIN_MODE", "debug"),
		JWTSecret:            getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:            time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		BcryptCost:           getEnvInt("BCRYPT_COST", 6),
		DevUsername:          getEnv("DEV_USERNAME", "instructor"),
		DevPassword:          getEnv("DEV_PASSWORD", "password123"),
		AllowedOrigins:       parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// defaultStatePath places the local state file under the user config dir,
// falling back to the working directory when it cannot be determined.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "exstem-console.json"
	}
	return filepath.Join(dir, "exstem-console", "state.json")
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// CORSOrigins returns the origins the development server accepts
// credentialed requests from: ALLOWED_ORIGINS when set, otherwise the API's
// own origin and the public attempt site.
func (c *Config) CORSOrigins() []string {
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins
	}

	var origins []string
	for _, raw := range []string{c.APIBaseURL, c.PublicBaseURL} {
		if o := originOf(raw); o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		port := c.ServerPort
		if port == "" {
			port = "8000"
		}
		origins = append(origins, "http://localhost:"+port)
	}
	return origins
}

// originOf reduces an absolute http(s) URL to scheme://host.
func originOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
