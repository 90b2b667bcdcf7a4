package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthFlagKey returns the Redis key holding the authenticated hint for a console profile
func (r *CacheKeyStruct) AuthFlagKey(profile string) string {
	return fmt.Sprintf("console:%s:is_authenticated", profile)
}

// SessionCookiesKey returns the Redis key holding the API session cookies for a console profile
func (r *CacheKeyStruct) SessionCookiesKey(profile string) string {
	return fmt.Sprintf("console:%s:session_cookies", profile)
}

// DevSessionKey returns the key of a development server session
func (r *CacheKeyStruct) DevSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

var CacheKey = NewCacheKeyStruct()
