package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const blacklistPrefix = "blogd:session:revoked:"

var (
	blacklist   = map[string]time.Time{}
	blacklistMu sync.RWMutex
)

// BlacklistToken revokes a session until its natural expiry.
// Redis is used when configured, otherwise an in-process map.
func BlacklistToken(key string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.Set(ctx, blacklistPrefix+key, "1", ttl).Err()
		if err == nil {
			return
		}
		Logger.Warn("redis revoke failed, falling back to memory", zap.Error(err))
	}
	blacklistMu.Lock()
	purgeExpiredLocked(time.Now())
	blacklist[key] = expiresAt
	blacklistMu.Unlock()
}

// IsTokenBlacklisted reports whether a session was revoked before its natural expiry.
func IsTokenBlacklisted(key string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, blacklistPrefix+key).Result()
		if err == nil && n > 0 {
			return true
		}
		if err != nil {
			Logger.Warn("redis revoke lookup failed", zap.Error(err))
		}
	}

	blacklistMu.RLock()
	expiresAt, ok := blacklist[key]
	blacklistMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		blacklistMu.Lock()
		delete(blacklist, key)
		blacklistMu.Unlock()
		return false
	}
	return true
}

// PurgeExpiredTokens drops expired in-memory revocations and returns how many were removed.
func PurgeExpiredTokens(now time.Time) int {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	return purgeExpiredLocked(now)
}

func purgeExpiredLocked(now time.Time) int {
	n := 0
	for k, exp := range blacklist {
		if now.After(exp) {
			delete(blacklist, k)
			n++
		}
	}
	return n
}
