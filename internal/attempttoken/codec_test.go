package attempttoken

import (
	"encoding/base64"
	"errors"
	"math"
	"strings"
	"testing"
)

type failingTransform struct{ Identity }

func (failingTransform) Encode(string) (string, error) { return "", errors.New("unavailable") }

func TestRoundTrip(t *testing.T) {
	for _, transform := range []Transform{Base64{}, Identity{}} {
		c := New(transform)
		for _, id := range []int64{0, 1, 7, 42, 1000, 123456789, math.MaxInt32, 1 << 52, 1<<53 + 1, math.MaxInt64 - 1, math.MaxInt64} {
			got, ok := c.Decode(c.Encode(id))
			if !ok || got != id {
				t.Fatalf("%T: round trip of %d gave %d, %v", transform, id, got, ok)
			}
		}
	}
}

func TestDecodeNumericForms(t *testing.T) {
	c := New(Identity{})
	cases := map[string]int64{
		"attempt:1e3:abc123":                 1000,
		"attempt:42.0:abc123":                42,
		"attempt:9007199254740993:abc123":    1<<53 + 1,
		"attempt:-5:abc123":                  -5,
		"attempt:9223372036854775807:abc123": math.MaxInt64,
	}
	for token, want := range cases {
		if got, ok := c.Decode(token); !ok || got != want {
			t.Errorf("Decode(%q) = %d, %v; want %d", token, got, ok, want)
		}
	}

	for _, token := range []string{"attempt:9223372036854775808:x", "attempt:4.5:x", "attempt:1e30:x"} {
		if got, ok := c.Decode(token); ok {
			t.Errorf("Decode(%q) = %d, want failure", token, got)
		}
	}
}

func TestEncodeIsURLSafeAndUnique(t *testing.T) {
	c := New(Base64{})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok := c.Encode(99)
		if strings.ContainsAny(tok, "+/=:") {
			t.Fatalf("token %q is not path safe", tok)
		}
		seen[tok] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected nonce to vary tokens, got %d distinct", len(seen))
	}
}

func TestEncodePayloadShape(t *testing.T) {
	c := New(Identity{}, WithNonce(func() string { return "abc123" }))
	if got := c.Encode(15); got != "attempt:15:abc123" {
		t.Fatalf("unexpected payload %q", got)
	}

	nonce := randomNonce()
	if len(nonce) != nonceLength || strings.Trim(nonce, alphabet) != "" {
		t.Fatalf("nonce %q is not 6 base-36 chars", nonce)
	}
}

func TestEncodeFallsBackToPlainPayload(t *testing.T) {
	c := New(failingTransform{}, WithNonce(func() string { return "zzzzzz" }))
	if got := c.Encode(3); got != "attempt:3:zzzzzz" {
		t.Fatalf("expected plain payload fallback, got %q", got)
	}
}

func TestEncodeNumber(t *testing.T) {
	c := New(Base64{})
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := c.EncodeNumber(v); got != "" {
			t.Fatalf("EncodeNumber(%v) = %q, want empty", v, got)
		}
	}
	if id, ok := c.Decode(c.EncodeNumber(12.9)); !ok || id != 12 {
		t.Fatalf("expected truncated id 12, got %d %v", id, ok)
	}
}

func TestDecodeFailures(t *testing.T) {
	c := New(Base64{})
	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-valid-token",
		"bad base64":     "%%%",
		"wrong prefix":   b64("quiz:5:abcdef"),
		"missing id":     b64("attempt::abcdef"),
		"only prefix":    b64("attempt"),
		"non numeric id": b64("attempt:five:abcdef"),
		"fractional id":  b64("attempt:1.5:abcdef"),
		"infinite id":    b64("attempt:Inf:abcdef"),
	}
	for name, tok := range cases {
		if id, ok := c.Decode(tok); ok {
			t.Fatalf("%s: expected failure, got %d", name, id)
		}
	}
}

func TestDecodeAcceptsStandardPaddedBase64(t *testing.T) {
	c := New(Base64{})
	tok := base64.StdEncoding.EncodeToString([]byte("attempt:204:q1w2e3"))
	if id, ok := c.Decode(tok); !ok || id != 204 {
		t.Fatalf("expected 204, got %d %v", id, ok)
	}
}

func TestDecodeIgnoresNonce(t *testing.T) {
	c := New(Identity{})
	for _, tok := range []string{"attempt:8", "attempt:8:", "attempt:8:anything:extra"} {
		if id, ok := c.Decode(tok); !ok || id != 8 {
			t.Fatalf("%q: expected 8, got %d %v", tok, id, ok)
		}
	}
}

func TestTransformFor(t *testing.T) {
	if _, ok := TransformFor("BASE64").(Base64); !ok {
		t.Fatalf("expected Base64 transform")
	}
	if _, ok := TransformFor("plain").(Identity); !ok {
		t.Fatalf("expected Identity transform")
	}
}
