package devapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-console/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		GinMode:     gin.TestMode,
		JWTSecret:   "test-secret",
		JWTExpiry:   time.Hour,
		BcryptCost:  bcrypt.MinCost,
		DevUsername: "instructor",
		DevPassword: "password123",
	}
}

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	cfg := testConfig()
	srv := New(cfg, zerolog.Nop())
	if err := srv.Seed(context.Background(), cfg); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ts := httptest.NewServer(srv.Engine)
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	return &testClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *testClient) do(method, path, token, body string) (int, map[string]any) {
	c.t.Helper()

	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			c.t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func (c *testClient) csrf() string {
	c.t.Helper()
	status, body := c.do(http.MethodGet, "/api/auth/csrf/", "", "")
	if status != http.StatusOK {
		c.t.Fatalf("csrf status = %d", status)
	}
	tok, _ := body["csrfToken"].(string)
	if tok == "" {
		c.t.Fatal("empty csrf token")
	}
	return tok
}

func TestCSRFTokenIsStablePerSession(t *testing.T) {
	c := newTestClient(t)
	if a, b := c.csrf(), c.csrf(); a != b {
		t.Fatalf("token changed without rotation: %q != %q", a, b)
	}
}

func TestUnsafeRequestWithoutTokenIsRejected(t *testing.T) {
	c := newTestClient(t)
	c.csrf()

	status, body := c.do(http.MethodPost, "/api/auth/login/", "", `{"username":"instructor","password":"password123"}`)
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if body["detail"] != "CSRF Failed: CSRF token missing or incorrect." {
		t.Fatalf("detail = %v", body["detail"])
	}
}

func TestLoginRotatesToken(t *testing.T) {
	c := newTestClient(t)
	before := c.csrf()

	status, body := c.do(http.MethodPost, "/api/auth/login/", before, `{"username":"instructor","password":"password123"}`)
	if status != http.StatusOK {
		t.Fatalf("login status = %d (%v)", status, body)
	}
	if body["username"] != "instructor" {
		t.Fatalf("username = %v", body["username"])
	}

	after := c.csrf()
	if after == before {
		t.Fatal("token was not rotated by login")
	}

	if status, _ := c.do(http.MethodPost, "/api/quizzes/", before, `{"title":"Stale"}`); status != http.StatusForbidden {
		t.Fatalf("stale token accepted: status %d", status)
	}
	if status, _ := c.do(http.MethodPost, "/api/quizzes/", after, `{"title":"Fresh"}`); status != http.StatusCreated {
		t.Fatalf("create with fresh token: status %d", status)
	}
}

func TestWrongPasswordMentionsCredentials(t *testing.T) {
	c := newTestClient(t)

	status, body := c.do(http.MethodPost, "/api/auth/login/", c.csrf(), `{"username":"instructor","password":"nope"}`)
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if detail, _ := body["detail"].(string); !strings.Contains(detail, "credentials") {
		t.Fatalf("detail = %q", detail)
	}
	if body["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("code = %v", body["code"])
	}
}

func TestInstructorRoutesRequireLogin(t *testing.T) {
	c := newTestClient(t)

	status, body := c.do(http.MethodGet, "/api/quizzes/", "", "")
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if body["detail"] != "Authentication credentials were not provided." {
		t.Fatalf("detail = %v", body["detail"])
	}
}

func TestValidationErrorsAreTranslated(t *testing.T) {
	c := newTestClient(t)
	tok := c.csrf()
	c.do(http.MethodPost, "/api/auth/login/", tok, `{"username":"instructor","password":"password123"}`)

	status, body := c.do(http.MethodPost, "/api/quizzes/", c.csrf(), `{"title":""}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	fields, _ := body["fields"].(map[string]any)
	if _, ok := fields["title"]; !ok {
		t.Fatalf("fields = %v, want a title entry", fields)
	}
}

func TestPublicQuizHidesDrafts(t *testing.T) {
	c := newTestClient(t)
	c.do(http.MethodPost, "/api/auth/login/", c.csrf(), `{"username":"instructor","password":"password123"}`)

	_, quiz := c.do(http.MethodPost, "/api/quizzes/", c.csrf(), `{"title":"Draft"}`)
	publicID, _ := quiz["public_id"].(string)
	if publicID == "" {
		t.Fatalf("quiz has no public id: %v", quiz)
	}

	if status, _ := c.do(http.MethodGet, "/api/public/quizzes/"+publicID+"/", "", ""); status != http.StatusNotFound {
		t.Fatalf("draft visible to students: status %d", status)
	}
}

func TestCORSOnlyReflectsOwnOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.APIBaseURL = "http://localhost:8000"
	srv := New(cfg, zerolog.Nop())

	cases := []struct {
		origin string
		status int
		allow  string
	}{
		{"https://evil.example", http.StatusForbidden, ""},
		{"http://localhost:8000", http.StatusOK, "http://localhost:8000"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", tc.origin)
		rec := httptest.NewRecorder()
		srv.Engine.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("origin %s: status = %d, want %d", tc.origin, rec.Code, tc.status)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.allow {
			t.Fatalf("origin %s: allow-origin = %q, want %q", tc.origin, got, tc.allow)
		}
		if tc.allow != "" && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Fatalf("origin %s: expected credentials allowed", tc.origin)
		}
	}
}
