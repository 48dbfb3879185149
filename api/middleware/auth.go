package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/models"
)

// APIKeyContextKey is the gin context key holding the caller's API key
// after Auth succeeds. RateLimit buckets by it.
const APIKeyContextKey = "api_key"

// keyring holds SHA-256 digests of the accepted keys so lookups compare
// fixed-size values.
type keyring map[[sha256.Size]byte]struct{}

func newKeyring(keys []string) keyring {
	kr := make(keyring, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			kr[sha256.Sum256([]byte(k))] = struct{}{}
		}
	}
	return kr
}

func (kr keyring) accepts(key string) bool {
	_, ok := kr[sha256.Sum256([]byte(key))]
	return ok
}

// Auth returns API-key authentication middleware. A key is read from
// X-API-Key, or from Authorization: Bearer <key>. With no configured keys
// every request passes.
func Auth(apiKeys []string) gin.HandlerFunc {
	kr := newKeyring(apiKeys)
	if len(kr) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key, found := requestKey(c.Request)
		switch {
		case !found:
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized,
				"missing API key: send X-API-Key or Authorization: Bearer <key>")
		case !kr.accepts(key):
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid API key")
		default:
			c.Set(APIKeyContextKey, key)
			c.Next()
		}
	}
}

func requestKey(r *http.Request) (string, bool) {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), true
	}
	return "", false
}

// abort ends the request with the API's error envelope.
func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ResolveResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}
