package attempttoken

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Transform is the reversible, byte-safe step applied to the token payload.
type Transform interface {
	Encode(payload string) (string, error)
	Decode(token string) (string, error)
}

// TransformFor selects a transform by name once, at construction time.
// Unknown names fall back to the identity transform.
func TransformFor(name string) Transform {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "base64", "":
		return Base64{}
	default:
		return Identity{}
	}
}

// Base64 emits unpadded URL-safe base64 so tokens fit in a path segment.
// Decoding also accepts standard and padded base64.
type Base64 struct{}

func (Base64) Encode(payload string) (string, error) {
	return base64.RawURLEncoding.EncodeToString([]byte(payload)), nil
}

func (Base64) Decode(token string) (string, error) {
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(token, "="))
	raw, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return "", fmt.Errorf("decode attempt token: %w", err)
	}
	return string(raw), nil
}

// Identity leaves the payload untouched.
type Identity struct{}

func (Identity) Encode(payload string) (string, error) { return payload, nil }
func (Identity) Decode(token string) (string, error)   { return token, nil }
