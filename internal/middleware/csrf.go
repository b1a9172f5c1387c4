package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	pkghttp "github.com/BradenHooton/roster/pkg/http"
)

// OriginProtection rejects state-changing requests whose Origin header is
// neither the request's own host nor one of the allowed origins. Requests
// without an Origin header (non-browser clients) pass.
//
// The session cookie is ambient authority for the caller's roster, so a
// foreign page must not be able to submit mutations with it.
func OriginProtection(allowed []string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only protect state-changing methods
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowed, origin) || sameHost(origin, r.Host) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("cross-origin mutation rejected",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("origin", origin))
			pkghttp.WriteError(w, http.StatusForbidden, "forbidden", "Cross-origin request rejected")
		})
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == host
}
