package chi

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerAuthMiddleware returns a middleware that validates Bearer tokens
// against the configured API keys. With no keys configured the API is open
// and the middleware passes everything through. Health and metrics are
// always exempt so probes and scrapers need no credentials.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			switch {
			case auth == "":
				writeError(w, http.StatusUnauthorized, codeBadRequest, "missing authorization header")
			case !strings.HasPrefix(auth, bearerPrefix):
				writeError(w, http.StatusUnauthorized, codeBadRequest,
					"authorization header must use Bearer scheme")
			default:
				if _, ok := keys[strings.TrimPrefix(auth, bearerPrefix)]; !ok {
					writeError(w, http.StatusUnauthorized, codeBadRequest, "invalid api key")
					return
				}
				next.ServeHTTP(w, r)
			}
		})
	}
}
