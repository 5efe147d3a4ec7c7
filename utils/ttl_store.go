package utils

import (
	"context"
	"sync"
	"time"
)

// ttlSet is a set of keys with expirations, kept in Redis when configured and in process
// memory otherwise (single instance only).
type ttlSet struct {
	prefix string
	mu     sync.Mutex
	local  map[string]time.Time
}

func newTTLSet(prefix string) *ttlSet {
	return &ttlSet{prefix: prefix, local: map[string]time.Time{}}
}

func (s *ttlSet) add(key string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		if err := rc.Set(ctx, s.prefix+key, "1", ttl).Err(); err != nil {
			Sugar.Warnf("redis set failed key=%s err=%v", s.prefix+key, err)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.local[key] = time.Now().Add(ttl)
}

// has reports membership; take additionally removes the key so it can be used once.
func (s *ttlSet) has(key string, take bool) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()
		if take {
			v, err := rc.GetDel(ctx, s.prefix+key).Result()
			return err == nil && v != ""
		}
		n, err := rc.Exists(ctx, s.prefix+key).Result()
		// fail open on Redis errors to avoid locking everybody out
		return err == nil && n > 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.local[key]
	if !ok {
		return false
	}
	if take || time.Now().After(exp) {
		delete(s.local, key)
	}
	return time.Now().Before(exp)
}

func (s *ttlSet) sweepLocked() {
	now := time.Now()
	for k, exp := range s.local {
		if now.After(exp) {
			delete(s.local, k)
		}
	}
}

var (
	oauthStates   = newTTLSet("oauth:state:")
	revokedTokens = newTTLSet("jwt:blacklist:")
)

// SaveState stores an OAuth state token with TTL to mitigate CSRF.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	oauthStates.add(state, ttl)
}

// ConsumeState validates and removes a state token.
func ConsumeState(state string) bool {
	return oauthStates.has(state, true)
}

// BlacklistToken revokes a JWT until its natural expiration.
func BlacklistToken(token string, expiresAt time.Time) {
	revokedTokens.add(token, time.Until(expiresAt))
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(token string) bool {
	return revokedTokens.has(token, false)
}
