package authflag

import (
	"net/http"
	"strings"
)

// CookiesKey is the storage key of the saved API session cookies.
const CookiesKey = "session_cookies"

// encodeCookies renders cookies the way a Cookie request header carries them.
func encodeCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	return strings.Join(parts, "; ")
}

func decodeCookies(raw string) []*http.Cookie {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cookies, err := http.ParseCookie(raw)
	if err != nil {
		return nil
	}
	return cookies
}

func cloneCookies(cookies []*http.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}
