package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/roster/internal/session"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultMutationRateLimit returns the default limit for roster mutations (120 requests per minute)
func DefaultMutationRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
	}
}

// RateLimitMutations limits state-changing requests per session. Requests
// without a session fall back to the client IP. Reads pass through.
func RateLimitMutations(config RateLimitConfig) func(next http.Handler) http.Handler {
	limiter := httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(keyBySession),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

func keyBySession(r *http.Request) (string, error) {
	if id := session.IDFromContext(r.Context()); id != "" {
		return "session:" + id, nil
	}
	ip, err := httprate.KeyByRealIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
