// Package attempttoken converts attempt ids to and from the opaque tokens
// used in public attempt URLs.
//
// The token only hides sequential database ids. It is not an integrity
// check: the server still authorizes every attempt lookup.
package attempttoken

import (
	"crypto/rand"
	"math"
	"strconv"
	"strings"
)

const (
	prefix      = "attempt"
	nonceLength = 6
	alphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Codec encodes and decodes attempt tokens.
type Codec struct {
	transform Transform
	nonce     func() string
}

// Option customizes a Codec.
type Option func(*Codec)

// WithNonce replaces the random nonce source.
func WithNonce(fn func() string) Option {
	return func(c *Codec) { c.nonce = fn }
}

// New builds a Codec around transform. A nil transform means Identity.
func New(transform Transform, opts ...Option) *Codec {
	if transform == nil {
		transform = Identity{}
	}
	c := &Codec{transform: transform, nonce: randomNonce}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode returns the token for id. If the transform fails, the plain
// payload is returned instead.
func (c *Codec) Encode(id int64) string {
	payload := prefix + ":" + strconv.FormatInt(id, 10) + ":" + c.nonce()
	token, err := c.transform.Encode(payload)
	if err != nil {
		return payload
	}
	return token
}

// EncodeNumber encodes a numeric id as decoded from JSON. Non-finite values
// return "" and fractional values are truncated.
func (c *Codec) EncodeNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return c.Encode(int64(math.Trunc(v)))
}

// Decode returns the attempt id held by token. ok is false for empty,
// malformed or tampered tokens.
func (c *Codec) Decode(token string) (id int64, ok bool) {
	if token == "" {
		return 0, false
	}

	payload, err := c.transform.Decode(token)
	if err != nil {
		return 0, false
	}

	parts := strings.Split(payload, ":")
	if len(parts) < 2 || parts[0] != prefix || parts[1] == "" {
		return 0, false
	}

	raw := strings.TrimSpace(parts[1])
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}

	// Numeric forms such as "1e3" or "42.0" still decode when integral.
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func randomNonce() string {
	buf := make([]byte, nonceLength)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
