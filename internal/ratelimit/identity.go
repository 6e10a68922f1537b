package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
)

const (
	AnonymousIdentity = "anonymous"
	UnknownClientIP   = "unknown"
)

// Principal is the request-scoped auth state available to the limiter.
type Principal struct {
	UserID     string
	UserTier   string
	APIKey     string
	APIKeyTier string
}

// ResolveIdentity prefers an authenticated user, then an API key, then anonymous.
func ResolveIdentity(p Principal) (string, UserTier) {
	if p.UserID != "" {
		return "user_" + p.UserID, ParseTier(p.UserTier)
	}

	if p.APIKey != "" {
		sum := sha256.Sum256([]byte(p.APIKey))
		return "apikey_" + hex.EncodeToString(sum[:])[:16], ParseTier(p.APIKeyTier)
	}

	return AnonymousIdentity, TierFree
}

func ClientIP(header http.Header, remoteAddr string) string {
	if forwarded := header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil && host != "" {
			return host
		}
		return remoteAddr
	}

	return UnknownClientIP
}

// Key identifies a bucket before the window start is appended. The hourly and
// burst keys of one request differ only in scope.
func Key(scope Scope, identity, clientIP string, category Category) string {
	return fmt.Sprintf("%s:%s:%s:%s", scope, identity, clientIP, category)
}

func bucketKey(key string, windowStart int64) string {
	return fmt.Sprintf("rate_limit:%s:%d", key, windowStart)
}
